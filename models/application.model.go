package models

import (
	"time"

	"go-foodshare/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application is a receiver's request against a donation. It is stored in
// the receivers collection.
type Application struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Applicant      string             `bson:"applicant" json:"applicant"`
	ApplicantID    string             `bson:"applicantId" json:"applicantId"`
	PickupDate     string             `bson:"pickupDate" json:"pickupDate"`
	PickupTime     string             `bson:"pickupTime" json:"pickupTime"`
	PickupAddress  string             `bson:"pickupAddress" json:"pickupAddress"`
	Location       *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	ContactInfo    string             `bson:"contactInfo" json:"contactInfo"`
	Remarks        string             `bson:"remarks" json:"remarks"`
	DonationID     string             `bson:"donationId" json:"donationId"`
	workflow.Flags `bson:",inline"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	ModifiedAt     time.Time `bson:"modifiedAt" json:"modifiedAt"`
}
