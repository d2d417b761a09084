// Package sqldb implements the interaction log on SQLite.
package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aide-lsp/aide/internal/storage"
)

// Store is a SQLite-backed storage.InteractionStore.
type Store struct {
	db *sqlx.DB
}

var _ storage.InteractionStore = (*Store)(nil)

// Open creates or opens the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS interactions (
id TEXT PRIMARY KEY,
request_id TEXT NOT NULL,
provider TEXT NOT NULL,
model TEXT NOT NULL,
action TEXT,
status TEXT NOT NULL,
error TEXT,
prompt_tokens INTEGER NOT NULL DEFAULT 0,
duration_ns INTEGER NOT NULL DEFAULT 0,
created_at TIMESTAMP NOT NULL
)`)
	return err
}

// AppendInteraction inserts one record. A missing ID or CreatedAt is filled
// in; existing rows are never updated.
func (s *Store) AppendInteraction(ctx context.Context, rec *storage.Interaction) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, request_id, provider, model, action, status, error, prompt_tokens, duration_ns, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Provider, rec.Model, rec.Action, rec.Status,
		rec.Error, rec.PromptTokens, int64(rec.Duration), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// ListInteractions returns records newest-first.
func (s *Store) ListInteractions(ctx context.Context, opts storage.ListOptions) ([]*storage.Interaction, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, request_id, provider, model, action, status, error, prompt_tokens, duration_ns, created_at
FROM interactions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var result []*storage.Interaction
	for rows.Next() {
		var rec storage.Interaction
		var durationNS int64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Provider, &rec.Model,
			&rec.Action, &rec.Status, &rec.Error, &rec.PromptTokens, &durationNS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		rec.Duration = time.Duration(durationNS)
		result = append(result, &rec)
	}
	return result, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
