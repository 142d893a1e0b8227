package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore is the MongoDB driver.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", classify(err))
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", classify(err))
	}
	log.Printf("Connected to MongoDB database %q", database)
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique email index on users.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(string(Users)).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", classify(err))
	}
	return nil
}

func (m *MongoStore) Create(ctx context.Context, coll Collection, doc any) (primitive.ObjectID, error) {
	result, err := m.db.Collection(string(coll)).InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, classify(err)
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id, nil
}

func (m *MongoStore) Find(ctx context.Context, coll Collection, filter bson.M) ([]bson.Raw, error) {
	cursor, err := m.db.Collection(string(coll)).Find(ctx, filter)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var docs []bson.Raw
	for cursor.Next(ctx) {
		// Current is reused by the cursor on the next call.
		docs = append(docs, append(bson.Raw(nil), cursor.Current...))
	}
	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}
	return docs, nil
}

func (m *MongoStore) FindOne(ctx context.Context, coll Collection, filter bson.M) (bson.Raw, error) {
	raw, err := m.db.Collection(string(coll)).FindOne(ctx, filter).Raw()
	if err != nil {
		return nil, classify(err)
	}
	return raw, nil
}

func (m *MongoStore) Update(ctx context.Context, coll Collection, filter bson.M, set bson.M) (int64, error) {
	result, err := m.db.Collection(string(coll)).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, classify(err)
	}
	return result.MatchedCount, nil
}

func (m *MongoStore) Count(ctx context.Context, coll Collection, filter bson.M) (int64, error) {
	count, err := m.db.Collection(string(coll)).CountDocuments(ctx, filter)
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// Acquire starts a client session bound to the returned context.
func (m *MongoStore) Acquire(ctx context.Context) (context.Context, func(), error) {
	session, err := m.client.StartSession()
	if err != nil {
		return ctx, func() {}, classify(err)
	}
	release := func() {
		session.EndSession(context.Background())
	}
	return mongo.NewSessionContext(ctx, session), release, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return classify(m.client.Ping(ctx, readpref.Primary()))
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
