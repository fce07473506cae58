package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/kcarante/thinktasker/internal/models"
)

// ReferenceRepository handles reference corpus database operations.
// The corpus is append-only: documents are added on every sync and
// never rewritten.
type ReferenceRepository struct {
	db *DB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Add appends a document to the corpus. A document with the same
// subject and body as an existing one is silently skipped, which makes
// re-syncing and re-seeding idempotent.
func (r *ReferenceRepository) Add(ctx context.Context, doc *models.ReferenceDocument) error {
	query := `
		INSERT INTO reference_documents (id, subject, body, tokens, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject, body) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Subject,
		doc.Body,
		pq.Array(doc.Tokens),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add reference document: %w", err)
	}
	return nil
}

// LoadTokens streams the token sequences of every corpus document.
func (r *ReferenceRepository) LoadTokens(ctx context.Context) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tokens FROM reference_documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference documents: %w", err)
	}
	defer rows.Close()

	var docs [][]string
	for rows.Next() {
		var tokens pq.StringArray
		if err := rows.Scan(&tokens); err != nil {
			return nil, fmt.Errorf("failed to scan reference document: %w", err)
		}
		docs = append(docs, []string(tokens))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reference documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of corpus documents
func (r *ReferenceRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reference documents: %w", err)
	}
	return count, nil
}
