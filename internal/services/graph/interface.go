package graph

import (
	"context"

	"github.com/kcarante/thinktasker/internal/models"
)

// MailReader reads and acknowledges inbox messages
// This interface enables better testability by allowing mock implementations
type MailReader interface {
	ListUnreadMessages(ctx context.Context, graphUserID string) ([]models.RawMessage, error)
	BatchMarkRead(ctx context.Context, graphUserID string, messageIDs []string) error
}

// TaskWriter mirrors extracted tasks into a remote To Do list
type TaskWriter interface {
	EnsureTaskList(ctx context.Context, graphUserID, displayName string) (string, error)
	CreateTask(ctx context.Context, graphUserID, listID string, task *models.ExtractedTask) (string, error)
	UpdateTask(ctx context.Context, graphUserID, listID, remoteTaskID string, task *models.ExtractedTask) error
	CompleteTask(ctx context.Context, graphUserID, listID, remoteTaskID string) error
	DeleteTask(ctx context.Context, graphUserID, listID, remoteTaskID string) error
}

// Ensure the concrete client implements both interfaces
var (
	_ MailReader = (*Client)(nil)
	_ TaskWriter = (*Client)(nil)
)
