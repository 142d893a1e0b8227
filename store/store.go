// Package store is the document persistence facade shared by every handler.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names a document collection.
type Collection string

const (
	Users       Collection = "users"
	Donations   Collection = "donations"
	Receivers   Collection = "receivers"
	Delivery    Collection = "delivery"
	DonateMoney Collection = "donatemoney"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are not 24-char hex ObjectIDs.
	ErrInvalidID = errors.New("invalid id")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrUnavailable wraps connectivity and timeout failures of the backing store.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is implemented by the mongo and memory drivers.
//
// Filters are limited to equality on top-level fields, optionally combined
// with a "$or" of such maps.
type Store interface {
	Create(ctx context.Context, coll Collection, doc any) (primitive.ObjectID, error)
	Find(ctx context.Context, coll Collection, filter bson.M) ([]bson.Raw, error)
	FindOne(ctx context.Context, coll Collection, filter bson.M) (bson.Raw, error)
	// Update applies set to the first matching document and returns the matched count.
	Update(ctx context.Context, coll Collection, filter bson.M, set bson.M) (int64, error)
	Count(ctx context.Context, coll Collection, filter bson.M) (int64, error)
	// Acquire opens a per-request handle. The returned release func must be called
	// on every exit path.
	Acquire(ctx context.Context) (context.Context, func(), error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// ByID builds the filter for a single document id.
func ByID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

// FindAll runs Find and decodes every document into T.
func FindAll[T any](ctx context.Context, s Store, coll Collection, filter bson.M) ([]T, error) {
	raws, err := s.Find(ctx, coll, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", coll, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FindFirst runs FindOne and decodes the document into T.
func FindFirst[T any](ctx context.Context, s Store, coll Collection, filter bson.M) (T, error) {
	var v T
	raw, err := s.FindOne(ctx, coll, filter)
	if err != nil {
		return v, err
	}
	if err := bson.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s document: %w", coll, err)
	}
	return v, nil
}

// FindByID looks up a single document by its hex id.
func FindByID[T any](ctx context.Context, s Store, coll Collection, hex string) (T, error) {
	id, err := ParseID(hex)
	if err != nil {
		var zero T
		return zero, err
	}
	return FindFirst[T](ctx, s, coll, ByID(id))
}
