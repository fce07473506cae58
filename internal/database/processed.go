package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrAlreadyProcessed signals that a message identity has already been
// run through the pipeline. Callers treat it as an idempotent no-op.
var ErrAlreadyProcessed = errors.New("message already processed")

// uniqueViolation is the postgres error code for unique constraint
// violations.
const uniqueViolation = "23505"

// ProcessedMessageRepository records which message identities have been
// through the pipeline, guarding against duplicate task creation.
type ProcessedMessageRepository struct {
	db *DB
}

// NewProcessedMessageRepository creates a new processed message repository
func NewProcessedMessageRepository(db *DB) *ProcessedMessageRepository {
	return &ProcessedMessageRepository{db: db}
}

// MarkProcessed records a message identity. Returns ErrAlreadyProcessed
// when the identity was recorded before, including when a concurrent
// sync run won the race: the unique violation is the detection point.
func (r *ProcessedMessageRepository) MarkProcessed(ctx context.Context, userID uuid.UUID, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processed_messages (user_id, message_id, processed_at) VALUES ($1, $2, $3)`,
		userID, messageID, time.Now(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether a message identity was already processed
func (r *ProcessedMessageRepository) IsProcessed(ctx context.Context, userID uuid.UUID, messageID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_messages WHERE user_id = $1 AND message_id = $2)`,
		userID, messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return exists, nil
}
