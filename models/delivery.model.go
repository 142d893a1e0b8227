package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DeliveryPickup  = "pickup"
	DeliveryReceive = "receive"

	DeliveryStatusWait = "wait"
)

// Delivery links an order or application to a transport event
type Delivery struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	OrderID     string             `bson:"orderId" json:"orderId"`
	ApplicantID string             `bson:"applicantId" json:"applicantId"`
	Type        string             `bson:"type" json:"type"`
	Date        string             `bson:"date" json:"date"`
	Time        string             `bson:"time" json:"time"`
	Address     string             `bson:"address" json:"address"`
	Status      string             `bson:"status" json:"status"` // "wait" until someone updates it
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ModifiedAt  time.Time          `bson:"modifiedAt" json:"modifiedAt"`
}
