// Package workflow implements the approve/reject lifecycle shared by
// donations, applications and user registrations.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-foodshare/notify"
	"go-foodshare/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound means the id matched no pending record: it does not exist or
// has already been approved or rejected.
var ErrNotFound = errors.New("not found or already decided")

type State int

const (
	StatePending State = iota
	StateApproved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateApproved:
		return "Approved"
	case StateRejected:
		return "Rejected"
	default:
		return "Pending"
	}
}

// Flags is the persisted form of State. It is embedded inline in every
// entity that goes through review.
type Flags struct {
	Approved bool   `bson:"approved" json:"approved"`
	Rejected bool   `bson:"rejected" json:"rejected"`
	Status   string `bson:"status,omitempty" json:"status,omitempty"`
}

// Initial returns the flags every new record starts with.
func Initial() Flags {
	return Flags{Status: StatePending.String()}
}

func (f Flags) State() State {
	switch {
	case f.Approved:
		return StateApproved
	case f.Rejected:
		return StateRejected
	default:
		return StatePending
	}
}

type Decision int

const (
	Approve Decision = iota
	Reject
)

func (d Decision) State() State {
	if d == Approve {
		return StateApproved
	}
	return StateRejected
}

func (d Decision) field() string {
	if d == Approve {
		return "approved"
	}
	return "rejected"
}

// Kind describes an entity kind that can be reviewed.
type Kind struct {
	Name       string
	Label      string
	Collection store.Collection
	// OwnerField holds the hex id of the owning user. Empty means the
	// record is itself the user.
	OwnerField string
}

var (
	DonationKind     = Kind{Name: "donation", Label: "Donation", Collection: store.Donations, OwnerField: "donorId"}
	ApplicationKind  = Kind{Name: "application", Label: "Application", Collection: store.Receivers, OwnerField: "applicantId"}
	RegistrationKind = Kind{Name: "registration", Label: "Registration", Collection: store.Users}
)

// Pending selects records awaiting review.
func Pending() bson.M {
	return bson.M{"approved": false, "rejected": false}
}

// History selects records that have been reviewed.
func History() bson.M {
	return bson.M{"$or": []bson.M{{"approved": true}, {"rejected": true}}}
}

// Visible selects approved records shown to the public.
func Visible() bson.M {
	return bson.M{"approved": true, "rejected": false}
}

// Engine applies decisions and enqueues the resulting notifications.
type Engine struct {
	store  store.Store
	outbox notify.Outbox
	now    func() time.Time
}

func NewEngine(s store.Store, outbox notify.Outbox) *Engine {
	return &Engine{store: s, outbox: outbox, now: time.Now}
}

// Transition moves a pending record to the decided state. The conditional
// update is the only source of truth for whether the transition happened, so
// concurrent or repeated calls notify at most once.
func (e *Engine) Transition(ctx context.Context, kind Kind, hexID string, d Decision) error {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return ErrNotFound
	}

	filter := Pending()
	filter["_id"] = id
	set := bson.M{
		d.field():    true,
		"status":     d.State().String(),
		"modifiedAt": e.now(),
	}

	matched, err := e.store.Update(ctx, kind.Collection, filter, set)
	if err != nil {
		return fmt.Errorf("%s %s: %w", d.State(), kind.Name, err)
	}
	if matched == 0 {
		return ErrNotFound
	}

	e.notify(ctx, kind, id, d)
	return nil
}

func (e *Engine) notify(ctx context.Context, kind Kind, id primitive.ObjectID, d Decision) {
	if e.outbox == nil {
		return
	}

	record, err := e.store.FindOne(ctx, kind.Collection, store.ByID(id))
	if err != nil {
		log.Printf("Failed to load %s %s for notification: %v", kind.Name, id.Hex(), err)
		return
	}

	owner := record
	if kind.OwnerField != "" {
		ownerHex, ok := record.Lookup(kind.OwnerField).StringValueOK()
		if !ok || ownerHex == "" {
			log.Printf("No owner on %s %s, skipping notification", kind.Name, id.Hex())
			return
		}
		ownerID, err := primitive.ObjectIDFromHex(ownerHex)
		if err != nil {
			log.Printf("Invalid owner id %q on %s %s, skipping notification", ownerHex, kind.Name, id.Hex())
			return
		}
		owner, err = e.store.FindOne(ctx, store.Users, store.ByID(ownerID))
		if err != nil {
			log.Printf("Failed to load owner %s of %s %s: %v", ownerHex, kind.Name, id.Hex(), err)
			return
		}
	}

	email, _ := owner.Lookup("email").StringValueOK()
	if email == "" {
		log.Printf("Owner of %s %s has no email, skipping notification", kind.Name, id.Hex())
		return
	}
	name, _ := owner.Lookup("english_name").StringValueOK()
	title, _ := record.Lookup("title").StringValueOK()

	subject, body := notify.Decided(kind.Label, title, name, d == Approve)
	n := notify.New(kind.Name+"."+d.field(), id.Hex(), email, subject, body)
	if err := e.outbox.Publish(ctx, n); err != nil {
		log.Printf("Failed to enqueue notification for %s %s: %v", kind.Name, id.Hex(), err)
	}
}
