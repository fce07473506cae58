package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/models"
)

// mockMailReader implements graph.MailReader
type mockMailReader struct {
	messages   []models.RawMessage
	listErr    error
	markedRead [][]string
	markErr    error
}

func (m *mockMailReader) ListUnreadMessages(_ context.Context, _ string) ([]models.RawMessage, error) {
	return m.messages, m.listErr
}

func (m *mockMailReader) BatchMarkRead(_ context.Context, _ string, ids []string) error {
	m.markedRead = append(m.markedRead, ids)
	return m.markErr
}

// mockTaskWriter implements graph.TaskWriter
type mockTaskWriter struct {
	listID    string
	created   int
	updated   int
	completed int
	deleted   int
	createErr error
}

func (m *mockTaskWriter) EnsureTaskList(_ context.Context, _, _ string) (string, error) {
	if m.listID == "" {
		m.listID = "list-1"
	}
	return m.listID, nil
}

func (m *mockTaskWriter) CreateTask(_ context.Context, _, _ string, _ *models.ExtractedTask) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created++
	return fmt.Sprintf("remote-%d", m.created), nil
}

func (m *mockTaskWriter) UpdateTask(_ context.Context, _, _, _ string, _ *models.ExtractedTask) error {
	m.updated++
	return nil
}

func (m *mockTaskWriter) CompleteTask(_ context.Context, _, _, _ string) error {
	m.completed++
	return nil
}

func (m *mockTaskWriter) DeleteTask(_ context.Context, _, _, _ string) error {
	m.deleted++
	return nil
}

// mockDescriber implements ai.DescriptionProvider
type mockDescriber struct {
	description string
	err         error
}

func (m *mockDescriber) DescribeTask(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.description, nil
}

// mockUserRepo implements database.UserRepositoryInterface
type mockUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

// mockTaskRepo implements database.TaskRepositoryInterface
type mockTaskRepo struct {
	open          []*models.ExtractedTask
	created       []*models.ExtractedTask
	updated       []*models.ExtractedTask
	bulkDeadlines []map[uuid.UUID]time.Time
}

func (m *mockTaskRepo) Create(_ context.Context, task *models.ExtractedTask) error {
	m.created = append(m.created, task)
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ExtractedTask, error) {
	for _, t := range append(m.open, m.created...) {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New("task not found")
}

func (m *mockTaskRepo) GetByUserID(_ context.Context, _ uuid.UUID, status *models.TaskStatus) ([]*models.ExtractedTask, error) {
	if status == nil {
		return append(append([]*models.ExtractedTask(nil), m.open...), m.created...), nil
	}
	var out []*models.ExtractedTask
	for _, t := range append(append([]*models.ExtractedTask(nil), m.open...), m.created...) {
		if t.Status == *status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) GetOpenByUserID(_ context.Context, _ uuid.UUID) ([]*models.ExtractedTask, error) {
	return m.open, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *models.ExtractedTask) error {
	m.updated = append(m.updated, task)
	return nil
}

func (m *mockTaskRepo) BulkUpdateDeadlines(_ context.Context, deadlines map[uuid.UUID]time.Time) error {
	m.bulkDeadlines = append(m.bulkDeadlines, deadlines)
	return nil
}

func (m *mockTaskRepo) DeleteCompleted(_ context.Context, _ uuid.UUID) ([]*models.ExtractedTask, error) {
	var kept, deleted []*models.ExtractedTask
	for _, t := range m.open {
		if t.Status == models.TaskStatusCompleted {
			deleted = append(deleted, t)
			continue
		}
		kept = append(kept, t)
	}
	m.open = kept
	return deleted, nil
}

// mockPatternRepo implements database.PatternRepositoryInterface
type mockPatternRepo struct {
	patterns []models.ActionablePattern
}

func (m *mockPatternRepo) GetActive(_ context.Context) ([]models.ActionablePattern, error) {
	return m.patterns, nil
}

// mockReferenceRepo implements database.ReferenceRepositoryInterface
type mockReferenceRepo struct {
	docs  [][]string
	added []*models.ReferenceDocument
}

func (m *mockReferenceRepo) Add(_ context.Context, doc *models.ReferenceDocument) error {
	m.added = append(m.added, doc)
	return nil
}

func (m *mockReferenceRepo) LoadTokens(_ context.Context) ([][]string, error) {
	return m.docs, nil
}

// mockProcessedRepo implements database.ProcessedMessageRepositoryInterface
type mockProcessedRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockProcessedRepo) MarkProcessed(_ context.Context, userID uuid.UUID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	key := userID.String() + "/" + messageID
	if m.seen[key] {
		return database.ErrAlreadyProcessed
	}
	m.seen[key] = true
	return nil
}

func (m *mockProcessedRepo) IsProcessed(_ context.Context, userID uuid.UUID, messageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[userID.String()+"/"+messageID], nil
}

// mockLocker implements UserLocker
type mockLocker struct {
	held     bool
	acquires int
	releases int
}

func (m *mockLocker) Acquire(_ context.Context, _ uuid.UUID) (bool, error) {
	m.acquires++
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *mockLocker) Release(_ context.Context, _ uuid.UUID) error {
	m.releases++
	m.held = false
	return nil
}

// alwaysEnglish stubs the language gate
type alwaysEnglish struct{}

func (alwaysEnglish) IsEnglish(string) bool { return true }

// neverEnglish stubs the language gate as all-foreign
type neverEnglish struct{}

func (neverEnglish) IsEnglish(string) bool { return false }
