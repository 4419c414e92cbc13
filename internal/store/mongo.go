package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a referenced user or conversation id does not
// resolve to a stored document.
var ErrNotFound = errors.New("store: not found")

const databaseName = "ring_app"

// Mongo persists users and conversations. Every mutation is a single-document
// write so the turn invariant never depends on multi-step transactions.
type Mongo struct {
	client        *mongo.Client
	users         *mongo.Collection
	conversations *mongo.Collection
}

// NewMongo connects to MongoDB and pings it before returning.
func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(databaseName)
	return &Mongo{
		client:        client,
		users:         db.Collection("users"),
		conversations: db.Collection("conversations"),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// CreateUser inserts a user and returns its hex id.
func (m *Mongo) CreateUser(ctx context.Context, u *User) (string, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := m.users.InsertOne(ctx, u)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// UserExists reports whether a user document with the given id exists. A
// malformed id is treated as a missing user, not an error.
func (m *Mongo) UserExists(ctx context.Context, userID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	n, err := m.users.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// CreateConversation inserts a conversation document (including any initial
// turns) and returns its hex id.
func (m *Mongo) CreateConversation(ctx context.Context, c *Conversation) (string, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Turns == nil {
		c.Turns = []Turn{}
	}
	res, err := m.conversations.InsertOne(ctx, c)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert conversation: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// GetConversation loads one conversation by hex id.
func (m *Mongo) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var c Conversation
	err = m.conversations.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

// AppendTurn pushes a new turn onto the conversation's turn array.
func (m *Mongo) AppendTurn(ctx context.Context, id string, t Turn) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := m.conversations.UpdateByID(ctx, oid, bson.M{"$push": bson.M{"conversation": t}})
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseTurn sets user_text on the turn with the given index, but only if that
// turn is still open. The conditional filter makes the update a compare-and-set
// on (index, user_text unset): a concurrent close of the same turn matches
// zero documents and returns false instead of overwriting history.
func (m *Mongo) CloseTurn(ctx context.Context, id string, index int, userText string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}
	filter := bson.M{
		"_id": oid,
		"conversation": bson.M{"$elemMatch": bson.M{
			"turn":      index,
			"user_text": nil,
		}},
	}
	update := bson.M{"$set": bson.M{"conversation.$.user_text": userText}}
	res, err := m.conversations.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("close turn: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// SetFeedback stores the end-of-call feedback, replacing any previous value.
func (m *Mongo) SetFeedback(ctx context.Context, id string, fb Feedback) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := m.conversations.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"grammar_feedback": fb}})
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
