package workers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/queue"
)

func strPtr(s string) *string { return &s }

type syncFixture struct {
	syncer    *MailboxSyncer
	mail      *mockMailReader
	remote    *mockTaskWriter
	tasks     *mockTaskRepo
	reference *mockReferenceRepo
	processed *mockProcessedRepo
	locker    *mockLocker
	userID    uuid.UUID
}

func newSyncFixture(t *testing.T, messages []models.RawMessage) *syncFixture {
	t.Helper()

	userID := uuid.New()
	mail := &mockMailReader{messages: messages}
	remote := &mockTaskWriter{}
	tasks := &mockTaskRepo{}
	reference := &mockReferenceRepo{}
	processed := &mockProcessedRepo{}
	locker := &mockLocker{}

	users := &mockUserRepo{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "user@example.com", ProviderID: strPtr("graph-user-1")},
	}}
	patterns := &mockPatternRepo{patterns: []models.ActionablePattern{
		{ID: uuid.New(), Pattern: "please", PatternType: models.PatternTypeWord, IsActive: true},
		{ID: uuid.New(), Pattern: "review", PatternType: models.PatternTypeWord, IsActive: true},
	}}

	syncer := NewMailboxSyncer(
		mail, remote,
		&mockDescriber{description: "Do the thing."},
		users, tasks, patterns, reference, processed, locker,
		engine.NewScheduler(nil, 0),
		alwaysEnglish{},
	)

	return &syncFixture{
		syncer: syncer, mail: mail, remote: remote, tasks: tasks,
		reference: reference, processed: processed, locker: locker, userID: userID,
	}
}

func TestProcessMailboxSyncJob_CreatesTasksFromActionableMail(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{
			ID:          "m1",
			Subject:     "Please review the budget",
			BodyPreview: "Please review the budget by tomorrow.",
			ReceivedAt:  time.Now(),
		},
		{
			ID:          "m2",
			Subject:     "Lunch photos",
			BodyPreview: "some pictures from the team lunch",
			ReceivedAt:  time.Now(),
		},
	})

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Fatalf("expected 1 task created, got %d", len(fix.tasks.created))
	}
	task := fix.tasks.created[0]
	if task.Description != "Do the thing." {
		t.Errorf("unexpected description %q", task.Description)
	}
	if task.Status != models.TaskStatusOpen {
		t.Errorf("new task should be Open, got %s", task.Status)
	}
	if task.Deadline == nil {
		t.Fatal("scheduled task must carry a deadline slot")
	}
	if task.SourceMessageID == nil || *task.SourceMessageID != "m1" {
		t.Error("task should reference its source message")
	}

	// Both messages grow the corpus, only the actionable one becomes a task
	if len(fix.reference.added) != 2 {
		t.Errorf("expected 2 corpus documents, got %d", len(fix.reference.added))
	}

	// The whole scanned batch is acknowledged, task or no task
	if len(fix.mail.markedRead) != 1 || len(fix.mail.markedRead[0]) != 2 {
		t.Errorf("expected both messages marked read, got %v", fix.mail.markedRead)
	}

	// Remote mirror created and the remote id recorded
	if fix.remote.created != 1 {
		t.Errorf("expected 1 remote task, got %d", fix.remote.created)
	}
	if task.RemoteTaskID == nil {
		t.Error("expected remote task id to be recorded")
	}
}

func TestProcessMailboxSyncJob_MarksNonActionableMailRead(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{
			ID:          "msg-actionable",
			Subject:     "Please review the draft",
			BodyPreview: "Please review the draft by Friday.",
			ReceivedAt:  time.Now(),
		},
		{
			ID:          "msg-newsletter",
			Subject:     "Weekly digest",
			BodyPreview: "Here is what happened this week.",
			ReceivedAt:  time.Now(),
		},
	})

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Fatalf("expected 1 task created, got %d", len(fix.tasks.created))
	}

	marked := make(map[string]bool)
	for _, batch := range fix.mail.markedRead {
		for _, id := range batch {
			marked[id] = true
		}
	}
	if !marked["msg-newsletter"] {
		t.Error("non-actionable message must still be marked read")
	}
	if !marked["msg-actionable"] {
		t.Error("actionable message must be marked read")
	}
}

func TestProcessMailboxSyncJob_MarksReadWithNoActionableMail(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Cafeteria menu", BodyPreview: "This week's menu.", ReceivedAt: time.Now()},
	})

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 0 {
		t.Fatalf("expected no tasks, got %d", len(fix.tasks.created))
	}
	if len(fix.mail.markedRead) != 1 || len(fix.mail.markedRead[0]) != 1 || fix.mail.markedRead[0][0] != "m1" {
		t.Errorf("a batch with no tasks must still be marked read, got %v", fix.mail.markedRead)
	}
}

func TestProcessMailboxSyncJob_SkipsAlreadyProcessed(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Please review the contract", ReceivedAt: time.Now()},
	})

	// First run creates the task
	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	// Second run sees the same unread message again
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Errorf("duplicate message must not create a second task, got %d", len(fix.tasks.created))
	}
}

func TestProcessMailboxSyncJob_LockHeldSkips(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Please review", ReceivedAt: time.Now()},
	})
	fix.locker.held = true

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 0 {
		t.Error("held lock must skip the run entirely")
	}
	if fix.locker.releases != 0 {
		t.Error("a skipped run must not release someone else's lock")
	}
}

func TestProcessMailboxSyncJob_NonEnglishExcluded(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Bitte prüfen Sie den Bericht", ReceivedAt: time.Now()},
	})
	fix.syncer.language = neverEnglish{}

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 0 {
		t.Error("non-English messages must not produce tasks")
	}
	if len(fix.reference.added) != 0 {
		t.Error("non-English messages must not grow the corpus")
	}
}

func TestProcessMailboxSyncJob_DescriptionFallback(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Please review the budget", ReceivedAt: time.Now()},
	})
	fix.syncer.describer = &mockDescriber{err: errors.New("model unavailable")}

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Fatalf("expected 1 task, got %d", len(fix.tasks.created))
	}
	if got := fix.tasks.created[0].Description; got != "Please review the budget" {
		t.Errorf("expected fallback to subject, got %q", got)
	}
}

func TestProcessMailboxSyncJob_UrgentKeywordRaisesPriority(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{
			ID:         "m1",
			Subject:    "URGENT: please review the outage report today",
			Flagged:    true,
			ReceivedAt: time.Now(),
		},
	})

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Fatalf("expected 1 task, got %d", len(fix.tasks.created))
	}
	// "today" yields a same-day deadline, so the days-left band alone
	// forces Urgent regardless of the score.
	if got := fix.tasks.created[0].Priority; got != models.TaskPriorityUrgent {
		t.Errorf("expected Urgent priority, got %s", got)
	}
}

func TestProcessMailboxSyncJob_RemoteMirrorFailureKeepsLocalTask(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Please review the numbers", ReceivedAt: time.Now()},
	})
	fix.remote.createErr = errors.New("graph unavailable")

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if len(fix.tasks.created) != 1 {
		t.Fatalf("local task must survive a remote failure, got %d", len(fix.tasks.created))
	}
	if fix.tasks.created[0].RemoteTaskID != nil {
		t.Error("remote id must stay unset when mirroring fails")
	}
}

func TestProcessMailboxSyncJob_MissingProviderID(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, nil)
	fix.syncer.userRepo = &mockUserRepo{users: map[uuid.UUID]*models.User{
		fix.userID: {ID: fix.userID, Email: "user@example.com"},
	}}

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for user without provider id")
	}
	if !strings.Contains(err.Error(), "provider id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProcessMailboxSyncJob_ReleasesLock(t *testing.T) {
	t.Parallel()

	fix := newSyncFixture(t, []models.RawMessage{
		{ID: "m1", Subject: "Please review", ReceivedAt: time.Now()},
	})

	job := queue.NewJob(queue.JobTypeMailboxSync, fix.userID)
	if err := fix.syncer.ProcessMailboxSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessMailboxSyncJob: %v", err)
	}

	if fix.locker.releases != 1 {
		t.Errorf("expected exactly one lock release, got %d", fix.locker.releases)
	}
	if fix.locker.held {
		t.Error("lock must be free after the run")
	}
}
