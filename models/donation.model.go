package models

import (
	"encoding/json"
	"time"

	"go-foodshare/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is an optional pickup coordinate.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// FoodItem is one entry of a donation, kept as the donor sent it. FoodPhoto
// holds the stored file name of the photo uploaded at the same index, or nil;
// every other field (quantity, unit, category...) lives in Details.
type FoodItem struct {
	FoodName  string         `bson:"foodName"`
	FoodPhoto *string        `bson:"foodPhoto"`
	Details   map[string]any `bson:",inline"`
}

func (f FoodItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Details)+2)
	for k, v := range f.Details {
		out[k] = v
	}
	out["foodName"] = f.FoodName
	out["foodPhoto"] = f.FoodPhoto
	return json.Marshal(out)
}

func (f *FoodItem) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	item := FoodItem{}
	if name, ok := fields["foodName"].(string); ok {
		item.FoodName = name
	}
	if photo, ok := fields["foodPhoto"].(string); ok {
		item.FoodPhoto = &photo
	}
	delete(fields, "foodName")
	delete(fields, "foodPhoto")
	if len(fields) > 0 {
		item.Details = fields
	}
	*f = item
	return nil
}

// Donation represents a donor's offer of food items
type Donation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Date           string             `bson:"date,omitempty" json:"date,omitempty"`
	DonorID        string             `bson:"donorId" json:"donorId"`
	DonorName      string             `bson:"donorName" json:"donorName"`
	PickUpAddress  string             `bson:"pick_up_address" json:"pick_up_address"`
	Location       *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	CollectDate    string             `bson:"collectDate" json:"collectDate"`
	CollectTime    string             `bson:"collectTime" json:"collectTime"`
	FoodItems      []FoodItem         `bson:"foodItems" json:"foodItems"`
	workflow.Flags `bson:",inline"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	ModifiedAt     time.Time `bson:"modifiedAt" json:"modifiedAt"`
}
