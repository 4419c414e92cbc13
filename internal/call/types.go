package call

import (
	"context"

	"github.com/artinSha/RingApp-Backend/internal/store"
)

// Transcriber converts one recorded clip to text. An empty transcript with a
// nil error means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error)
}

// Dialogue produces the next AI line (Reply) or an evaluation payload
// (Evaluate). Both are stateless per call; Reply receives the full labeled
// transcript every time.
type Dialogue interface {
	Reply(ctx context.Context, systemInstruction, transcript string) (string, error)
	Evaluate(ctx context.Context, instruction, payload string) (string, error)
}

// Synthesizer renders an AI line to encoded audio (MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcoder converts a non-native upload into 16 kHz mono WAV.
type Transcoder interface {
	ToWAV16kMono(ctx context.Context, in []byte, formatHint string) ([]byte, error)
}

// Archiver stores a synthesized clip and returns a URL for it.
type Archiver interface {
	UploadAudio(key string, data []byte) (string, error)
}

// Store is the conversation persistence consumed by the turn-state machine.
// CloseTurn is conditional on the turn still being open so a lost race shows
// up as a miss instead of overwritten history.
type Store interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateConversation(ctx context.Context, c *store.Conversation) (string, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	AppendTurn(ctx context.Context, id string, t store.Turn) error
	CloseTurn(ctx context.Context, id string, index int, userText string) (bool, error)
	SetFeedback(ctx context.Context, id string, fb store.Feedback) error
}

// StartResult is the outcome of starting a call.
type StartResult struct {
	ConversationID  string
	OpeningLine     string
	OpeningAudioURL string
}

// TurnResult is the outcome of one processed user clip.
type TurnResult struct {
	UserText         string
	AIText           string
	AudioMP3         []byte
	TurnOrderWarning bool
}

// CloseResult is the outcome of ending a call: the feedback plus the full
// history reshaped into parallel user/AI line sequences.
type CloseResult struct {
	Feedback  store.Feedback
	UserLines []string
	AILines   []string
}
