// Package storage defines the interaction record and the store interface
// used to keep a process-local, append-only log of AI invocations.
package storage

import (
	"context"
	"time"
)

// Interaction statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Interaction is one recorded AI invocation.
type Interaction struct {
	ID           string        `db:"id"`
	RequestID    string        `db:"request_id"`
	Provider     string        `db:"provider"`
	Model        string        `db:"model"`
	Action       string        `db:"action"`
	Status       string        `db:"status"`
	Error        string        `db:"error"`
	PromptTokens int           `db:"prompt_tokens"`
	Duration     time.Duration `db:"duration_ns"`
	CreatedAt    time.Time     `db:"created_at"`
}

// ListOptions controls pagination for interaction listing.
type ListOptions struct {
	Limit  int
	Offset int
}

// InteractionStore is an append-only log of invocations.
type InteractionStore interface {
	AppendInteraction(ctx context.Context, rec *Interaction) error
	ListInteractions(ctx context.Context, opts ListOptions) ([]*Interaction, error)
	Close() error
}
