package models

import (
	"time"

	"go-foodshare/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user registers with. The field is an open string; these are the
// values the frontend sends.
const (
	RoleDonor    = "donor"
	RoleReceiver = "receiver"
	RoleAdmin    = "admin"
)

// User represents a registered donor, receiver or administrator
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Role           string             `bson:"role" json:"role"`
	Salutation     string             `bson:"salutation" json:"salutation"`
	EnglishName    string             `bson:"english_name" json:"english_name"`
	CompanyName    string             `bson:"company_name" json:"company_name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	IPAddress      string             `bson:"ip_address,omitempty" json:"-"`
	workflow.Flags `bson:",inline"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	ModifiedAt     time.Time `bson:"modifiedAt" json:"modifiedAt"`
}

// Sanitize returns a copy without credentials or network details.
func (u User) Sanitize() User {
	u.Password = ""
	u.IPAddress = ""
	return u
}
