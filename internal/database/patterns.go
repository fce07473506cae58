package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/models"
)

// PatternRepository handles actionable pattern database operations
type PatternRepository struct {
	db *DB
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// Create creates a new actionable pattern
func (r *PatternRepository) Create(ctx context.Context, p *models.ActionablePattern) error {
	query := `
		INSERT INTO actionable_patterns (id, pattern, pattern_type, label, priority_hint, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Pattern,
		p.PatternType,
		p.Label,
		p.PriorityHint,
		p.IsActive,
		now,
		now,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create pattern: %w", err)
	}

	return nil
}

// GetActive retrieves all active patterns in insertion order. The
// classifier depends on this order being stable.
func (r *PatternRepository) GetActive(ctx context.Context) ([]models.ActionablePattern, error) {
	query := `
		SELECT id, pattern, pattern_type, label, priority_hint, is_active, created_at, updated_at
		FROM actionable_patterns
		WHERE is_active = TRUE
		ORDER BY created_at, id
	`
	return r.queryPatterns(ctx, query)
}

// List retrieves all patterns, active or not
func (r *PatternRepository) List(ctx context.Context) ([]models.ActionablePattern, error) {
	query := `
		SELECT id, pattern, pattern_type, label, priority_hint, is_active, created_at, updated_at
		FROM actionable_patterns
		ORDER BY created_at, id
	`
	return r.queryPatterns(ctx, query)
}

func (r *PatternRepository) queryPatterns(ctx context.Context, query string) ([]models.ActionablePattern, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.ActionablePattern
	for rows.Next() {
		var p models.ActionablePattern
		err := rows.Scan(
			&p.ID,
			&p.Pattern,
			&p.PatternType,
			&p.Label,
			&p.PriorityHint,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}

	return patterns, nil
}

// SetActive toggles a pattern's active flag
func (r *PatternRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE actionable_patterns SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pattern not found: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a pattern
func (r *PatternRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM actionable_patterns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("pattern not found: %w", sql.ErrNoRows)
	}
	return nil
}
