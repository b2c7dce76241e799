package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalEntry records one applied action.
type JournalEntry struct {
	RequestID uuid.UUID
	Tick      uint64
	Kind      string
	Raw       []byte // request JSON, nil when unavailable
	Result    string
	ErrorKind string
	AppliedAt time.Time
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append writes a batch of entries in a single transaction.
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		var raw any
		if len(e.Raw) > 0 {
			raw = string(e.Raw)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO action_journal (request_id, tick, kind, raw, result, error_kind, applied_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)`,
			e.RequestID, int64(e.Tick), e.Kind, raw, e.Result, e.ErrorKind, e.AppliedAt,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
