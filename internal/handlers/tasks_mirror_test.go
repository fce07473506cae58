package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kcarante/thinktasker/internal/middleware"
	"github.com/kcarante/thinktasker/internal/models"
)

// stubTaskRepo implements database.TaskRepositoryInterface over a map
type stubTaskRepo struct {
	tasks map[uuid.UUID]*models.ExtractedTask
}

func (s *stubTaskRepo) Create(_ context.Context, task *models.ExtractedTask) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ExtractedTask, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, errors.New("task not found")
	}
	return task, nil
}

func (s *stubTaskRepo) GetByUserID(_ context.Context, userID uuid.UUID, status *models.TaskStatus) ([]*models.ExtractedTask, error) {
	var out []*models.ExtractedTask
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubTaskRepo) GetOpenByUserID(_ context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error) {
	var out []*models.ExtractedTask
	for _, t := range s.tasks {
		if t.UserID == userID && t.Status != models.TaskStatusCompleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTaskRepo) Update(_ context.Context, task *models.ExtractedTask) error {
	s.tasks[task.ID] = task
	return nil
}

func (s *stubTaskRepo) BulkUpdateDeadlines(_ context.Context, deadlines map[uuid.UUID]time.Time) error {
	for id, deadline := range deadlines {
		if t, ok := s.tasks[id]; ok {
			d := deadline
			t.Deadline = &d
		}
	}
	return nil
}

func (s *stubTaskRepo) DeleteCompleted(_ context.Context, userID uuid.UUID) ([]*models.ExtractedTask, error) {
	var deleted []*models.ExtractedTask
	for id, t := range s.tasks {
		if t.UserID == userID && t.Status == models.TaskStatusCompleted {
			deleted = append(deleted, t)
			delete(s.tasks, id)
		}
	}
	return deleted, nil
}

// stubTaskWriter implements graph.TaskWriter and records calls
type stubTaskWriter struct {
	updated   int
	completed int
	deleted   int
	updateErr error
}

func (s *stubTaskWriter) EnsureTaskList(_ context.Context, _, _ string) (string, error) {
	return "list-1", nil
}

func (s *stubTaskWriter) CreateTask(_ context.Context, _, _ string, _ *models.ExtractedTask) (string, error) {
	return "remote-1", nil
}

func (s *stubTaskWriter) UpdateTask(_ context.Context, _, _, _ string, _ *models.ExtractedTask) error {
	s.updated++
	return s.updateErr
}

func (s *stubTaskWriter) CompleteTask(_ context.Context, _, _, _ string) error {
	s.completed++
	return nil
}

func (s *stubTaskWriter) DeleteTask(_ context.Context, _, _, _ string) error {
	s.deleted++
	return nil
}

func stringPtr(s string) *string { return &s }

func newMirrorFixture() (*TaskHandler, *stubTaskWriter, *models.User, *models.ExtractedTask) {
	user := &models.User{
		ID:         uuid.New(),
		Email:      "user@example.com",
		ProviderID: stringPtr("graph-user-1"),
	}
	task := &models.ExtractedTask{
		ID:           uuid.New(),
		UserID:       user.ID,
		Subject:      "Review the quarterly numbers",
		Priority:     models.TaskPriorityMedium,
		Status:       models.TaskStatusOpen,
		RemoteTaskID: stringPtr("remote-1"),
		RemoteListID: stringPtr("list-1"),
	}
	repo := &stubTaskRepo{tasks: map[uuid.UUID]*models.ExtractedTask{task.ID: task}}
	writer := &stubTaskWriter{}
	return NewTaskHandler(repo, nil, writer), writer, user, task
}

func patchTask(h *TaskHandler, user *models.User, taskID uuid.UUID, body any) *httptest.ResponseRecorder {
	req := newTestRequest(http.MethodPatch, "/tasks/"+taskID.String(), body)
	req = mux.SetURLVars(req, map[string]string{"id": taskID.String()})
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))

	w := httptest.NewRecorder()
	h.UpdateTask(w, req)
	return w
}

func TestUpdateTask_MirrorsToRemote(t *testing.T) {
	t.Parallel()

	h, writer, user, task := newMirrorFixture()

	w := patchTask(h, user, task.ID, map[string]string{"priority": "Urgent"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if writer.updated != 1 {
		t.Errorf("expected 1 remote update, got %d", writer.updated)
	}
	if writer.completed != 0 {
		t.Errorf("a priority change must not complete the remote task, got %d", writer.completed)
	}
	if task.Priority != models.TaskPriorityUrgent {
		t.Errorf("expected Urgent, got %s", task.Priority)
	}
}

func TestUpdateTask_CompletionMirrorsCheckOff(t *testing.T) {
	t.Parallel()

	h, writer, user, task := newMirrorFixture()

	w := patchTask(h, user, task.ID, map[string]string{"status": "Completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if writer.updated != 1 {
		t.Errorf("expected 1 remote update, got %d", writer.updated)
	}
	if writer.completed != 1 {
		t.Errorf("setting status Completed must check off the remote task, got %d", writer.completed)
	}
	if task.CompletedAt == nil {
		t.Error("expected completion timestamp to be set")
	}
}

func TestUpdateTask_RemoteFailureKeepsLocalUpdate(t *testing.T) {
	t.Parallel()

	h, writer, user, task := newMirrorFixture()
	writer.updateErr = errors.New("graph unavailable")

	w := patchTask(h, user, task.ID, map[string]string{"subject": "Revised subject"})
	if w.Code != http.StatusOK {
		t.Fatalf("a remote failure must not fail the request, got %d: %s", w.Code, w.Body.String())
	}
	if task.Subject != "Revised subject" {
		t.Errorf("local update must survive the remote failure, got %q", task.Subject)
	}
}

func TestUpdateTask_UnlinkedTaskSkipsRemote(t *testing.T) {
	t.Parallel()

	h, writer, user, task := newMirrorFixture()
	task.RemoteTaskID = nil
	task.RemoteListID = nil

	w := patchTask(h, user, task.ID, map[string]string{"priority": "Low"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if writer.updated != 0 {
		t.Errorf("a task with no remote copy must not call the remote writer, got %d", writer.updated)
	}
}
