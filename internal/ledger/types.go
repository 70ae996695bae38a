package ledger

import (
	"context"
	"time"
)

// Kind distinguishes the interactive flows recorded in the ledger.
type Kind string

const (
	KindVerification Kind = "verification"
	KindQuizRound    Kind = "quiz_round"
)

// Record is one terminal outcome of an interactive flow. Live session state
// is never persisted; only the way a round ended is.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject,omitempty"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves outcome records.
type Store interface {
	Append(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
