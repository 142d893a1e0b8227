package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MoneyDonation is an append-only record of a completed payment
type MoneyDonation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	DonorName       string             `bson:"donorName" json:"donorName"`
	DonationAmount  int64              `bson:"donationAmount" json:"donationAmount"`
	DonationMessage string             `bson:"donationMessage,omitempty" json:"donationMessage,omitempty"`
	OrderID         string             `bson:"orderId,omitempty" json:"orderId,omitempty"`
	Verified        bool               `bson:"verified" json:"verified"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
