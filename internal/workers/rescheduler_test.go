package workers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/queue"
)

func newReschedulerFixture(open []*models.ExtractedTask) (*Rescheduler, *mockTaskRepo, *mockTaskWriter, uuid.UUID) {
	userID := uuid.New()
	tasks := &mockTaskRepo{open: open}
	remote := &mockTaskWriter{}
	users := &mockUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "user@example.com", ProviderID: strPtr("graph-user-1")},
	}}
	r := NewRescheduler(remote, users, tasks, &mockLocker{}, engine.NewScheduler(nil, 0))
	return r, tasks, remote, userID
}

func TestProcessRescheduleJob_NormalizesOffSlotDeadline(t *testing.T) {
	t.Parallel()

	// A deadline sitting between work-hour slots moves onto the first
	// slot of its day, and the move is mirrored remotely.
	now := time.Now()
	day := engine.AddBusinessDays(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), 5)
	offSlot := time.Date(day.Year(), day.Month(), day.Day(), 10, 30, 0, 0, day.Location())
	listID := "list-1"
	remoteID := "remote-1"
	open := []*models.ExtractedTask{
		{
			ID:           uuid.New(),
			Subject:      "Off-slot task",
			Priority:     models.TaskPriorityMedium,
			Status:       models.TaskStatusOpen,
			Deadline:     &offSlot,
			RemoteTaskID: &remoteID,
			RemoteListID: &listID,
		},
	}

	r, tasks, remote, userID := newReschedulerFixture(open)

	job := queue.NewJob(queue.JobTypeRescheduleUser, userID)
	if err := r.ProcessRescheduleJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessRescheduleJob: %v", err)
	}

	if len(tasks.bulkDeadlines) != 1 {
		t.Fatalf("expected one bulk deadline update, got %d", len(tasks.bulkDeadlines))
	}
	moved, ok := tasks.bulkDeadlines[0][open[0].ID]
	if !ok {
		t.Fatal("expected the open task's deadline to move")
	}
	wantSlot := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
	if !moved.Equal(wantSlot) {
		t.Errorf("deadline = %v, want first slot %v", moved, wantSlot)
	}
	if remote.updated != 1 {
		t.Errorf("expected the remote mirror to be updated once, got %d", remote.updated)
	}
}

func TestProcessRescheduleJob_StableScheduleIsNoOp(t *testing.T) {
	t.Parallel()

	r, tasks, remote, userID := newReschedulerFixture(nil)

	job := queue.NewJob(queue.JobTypeRescheduleUser, userID)
	if err := r.ProcessRescheduleJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessRescheduleJob: %v", err)
	}

	if len(tasks.bulkDeadlines) != 0 {
		t.Error("no open tasks means no deadline writes")
	}
	if remote.updated != 0 {
		t.Error("no open tasks means no remote updates")
	}
}

func TestProcessRescheduleJob_CompletedTasksIgnored(t *testing.T) {
	t.Parallel()

	done := time.Now().Add(24 * time.Hour)
	open := []*models.ExtractedTask{
		{
			ID:       uuid.New(),
			Subject:  "Already done",
			Priority: models.TaskPriorityUrgent,
			Status:   models.TaskStatusCompleted,
			Deadline: &done,
		},
	}

	r, tasks, _, userID := newReschedulerFixture(open)

	job := queue.NewJob(queue.JobTypeRescheduleUser, userID)
	if err := r.ProcessRescheduleJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessRescheduleJob: %v", err)
	}

	if len(tasks.bulkDeadlines) != 0 {
		t.Error("completed tasks must not be rescheduled")
	}
}
