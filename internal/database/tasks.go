package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/models"
)

// TaskRepository handles extracted task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, subject, description, priority, status, deadline, source_message_id, remote_task_id, remote_list_id, relevance_score, created_at, updated_at, completed_at`

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.ExtractedTask) error {
	query := `
		INSERT INTO extracted_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Subject,
		task.Description,
		task.Priority,
		task.Status,
		task.Deadline,
		task.SourceMessageID,
		task.RemoteTaskID,
		task.RemoteListID,
		task.RelevanceScore,
		now,
		now,
		task.CompletedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractedTask, error) {
	query := `SELECT ` + taskColumns + ` FROM extracted_tasks WHERE id = $1`

	task, err := r.scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// GetByUserID retrieves all tasks for a user, optionally filtered by status
func (r *TaskRepository) GetByUserID(ctx context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.ExtractedTask, error) {
	query := `SELECT ` + taskColumns + ` FROM extracted_tasks WHERE user_id = $1`
	args := []any{userID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}

	query += ` ORDER BY deadline NULLS LAST, created_at`

	return r.queryTasks(ctx, query, args...)
}

// GetOpenByUserID retrieves every Open or Ongoing task for a user.
// This is the working set the scheduler reads and rewrites.
func (r *TaskRepository) GetOpenByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM extracted_tasks
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY deadline NULLS LAST, created_at
	`
	return r.queryTasks(ctx, query, userID, models.TaskStatusOpen, models.TaskStatusOngoing)
}

// Update rewrites the mutable fields of a task
func (r *TaskRepository) Update(ctx context.Context, task *models.ExtractedTask) error {
	query := `
		UPDATE extracted_tasks
		SET subject = $1, description = $2, priority = $3, status = $4,
		    deadline = $5, remote_task_id = $6, remote_list_id = $7,
		    completed_at = $8, updated_at = $9
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Subject,
		task.Description,
		task.Priority,
		task.Status,
		task.Deadline,
		task.RemoteTaskID,
		task.RemoteListID,
		task.CompletedAt,
		time.Now(),
		task.ID,
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// BulkUpdateDeadlines rewrites deadlines for the given tasks in one
// transaction so a scheduling run commits atomically per batch.
func (r *TaskRepository) BulkUpdateDeadlines(ctx context.Context, deadlines map[uuid.UUID]time.Time) error {
	if len(deadlines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			_ = rbErr
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE extracted_tasks SET deadline = $1, updated_at = $2 WHERE id = $3`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare deadline update: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for id, deadline := range deadlines {
		if _, err := stmt.ExecContext(ctx, deadline, now, id); err != nil {
			return fmt.Errorf("failed to update deadline for task %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deadline updates: %w", err)
	}
	return nil
}

// DeleteCompleted removes all completed tasks for a user and returns
// the deleted tasks so remote copies can be cleaned up too.
func (r *TaskRepository) DeleteCompleted(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error) {
	query := `
		DELETE FROM extracted_tasks
		WHERE user_id = $1 AND status = $2
		RETURNING ` + taskColumns + `
	`
	return r.queryTasks(ctx, query, userID, models.TaskStatusCompleted)
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.ExtractedTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ExtractedTask
	for rows.Next() {
		task, err := r.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TaskRepository) scanTask(row rowScanner) (*models.ExtractedTask, error) {
	task := &models.ExtractedTask{}
	var deadline, completedAt sql.NullTime
	var sourceMessageID, remoteTaskID, remoteListID sql.NullString

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Subject,
		&task.Description,
		&task.Priority,
		&task.Status,
		&deadline,
		&sourceMessageID,
		&remoteTaskID,
		&remoteListID,
		&task.RelevanceScore,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		task.Deadline = &deadline.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if sourceMessageID.Valid {
		task.SourceMessageID = &sourceMessageID.String
	}
	if remoteTaskID.Valid {
		task.RemoteTaskID = &remoteTaskID.String
	}
	if remoteListID.Valid {
		task.RemoteListID = &remoteListID.String
	}

	return task, nil
}
