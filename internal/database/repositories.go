package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.ExtractedTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ExtractedTask, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.ExtractedTask, error)
	GetOpenByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error)
	Update(ctx context.Context, task *models.ExtractedTask) error
	BulkUpdateDeadlines(ctx context.Context, deadlines map[uuid.UUID]time.Time) error
	DeleteCompleted(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error)
}

// PatternRepositoryInterface defines the interface for pattern repository operations
type PatternRepositoryInterface interface {
	GetActive(ctx context.Context) ([]models.ActionablePattern, error)
}

// ReferenceRepositoryInterface defines the interface for reference corpus operations
type ReferenceRepositoryInterface interface {
	Add(ctx context.Context, doc *models.ReferenceDocument) error
	LoadTokens(ctx context.Context) ([][]string, error)
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// ProcessedMessageRepositoryInterface defines the interface for processed message tracking
type ProcessedMessageRepositoryInterface interface {
	MarkProcessed(ctx context.Context, userID uuid.UUID, messageID string) error
	IsProcessed(ctx context.Context, userID uuid.UUID, messageID string) (bool, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface             = (*TaskRepository)(nil)
	_ PatternRepositoryInterface          = (*PatternRepository)(nil)
	_ ReferenceRepositoryInterface        = (*ReferenceRepository)(nil)
	_ UserRepositoryInterface             = (*UserRepository)(nil)
	_ ProcessedMessageRepositoryInterface = (*ProcessedMessageRepository)(nil)
)
