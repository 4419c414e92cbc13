package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is one registered learner. Conversations reference users by id; a user
// may have many conversations.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	DNDStart    string             `bson:"dnd_start" json:"dnd_start"`
	DNDEnd      string             `bson:"dnd_end" json:"dnd_end"`
	DeviceToken string             `bson:"device_token,omitempty" json:"device_token,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Turn is one AI line plus the user's (optional) reply to it. A turn is open
// while UserText is nil and closed once it is set; only the highest-index
// turn of a conversation may be open.
type Turn struct {
	Index     int       `bson:"turn" json:"turn"`
	AIText    string    `bson:"ai_text" json:"ai_text"`
	UserText  *string   `bson:"user_text" json:"user_text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Open reports whether the turn is still waiting for the user's reply.
func (t Turn) Open() bool {
	return t.AIText != "" && t.UserText == nil
}

// Correction is one (original, corrected) pair from the grammar evaluation.
type Correction struct {
	Original  string `bson:"original" json:"original"`
	Corrected string `bson:"corrected" json:"corrected"`
}

// Feedback is the end-of-call grammar assessment. Raw carries the evaluator's
// verbatim output when it could not be decoded into the structured fields.
type Feedback struct {
	SuccessPercentage int          `bson:"success_percentage" json:"success_percentage"`
	GrammarIssues     int          `bson:"grammar_issues" json:"grammar_issues"`
	Corrections       []Correction `bson:"corrections,omitempty" json:"corrections,omitempty"`
	TurnsAnalyzed     int          `bson:"turns_analyzed" json:"turns_analyzed"`
	Raw               string       `bson:"raw,omitempty" json:"raw,omitempty"`
}

// Conversation is one practice call: an append-only sequence of turns plus,
// after the call ends, the grammar feedback. Field names mirror the stored
// document shape.
type Conversation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	ScenarioKey string             `bson:"scenario" json:"scenario"`
	Turns       []Turn             `bson:"conversation" json:"conversation"`
	Feedback    *Feedback          `bson:"grammar_feedback" json:"grammar_feedback"`
	CreatedAt   time.Time          `bson:"timestamp" json:"timestamp"`
}

// LatestTurn returns the highest-index turn, or nil for an empty conversation.
func (c *Conversation) LatestTurn() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return &c.Turns[len(c.Turns)-1]
}
