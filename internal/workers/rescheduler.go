package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/queue"
	"github.com/kcarante/thinktasker/internal/services/graph"
)

// Rescheduler re-runs slot scheduling over a user's open tasks without
// touching the mailbox. Completing or deleting tasks frees slots, and a
// reschedule pulls the remaining backlog forward into them.
type Rescheduler struct {
	remote    graph.TaskWriter
	userRepo  database.UserRepositoryInterface
	taskRepo  database.TaskRepositoryInterface
	locker    UserLocker
	scheduler *engine.Scheduler
}

// NewRescheduler creates a rescheduler
func NewRescheduler(
	remote graph.TaskWriter,
	userRepo database.UserRepositoryInterface,
	taskRepo database.TaskRepositoryInterface,
	locker UserLocker,
	scheduler *engine.Scheduler,
) *Rescheduler {
	return &Rescheduler{
		remote:    remote,
		userRepo:  userRepo,
		taskRepo:  taskRepo,
		locker:    locker,
		scheduler: scheduler,
	}
}

// ProcessRescheduleJob reschedules the open tasks of the job's user.
// A stable schedule produces no reassignments and the run is a no-op.
func (r *Rescheduler) ProcessRescheduleJob(ctx context.Context, job *queue.Job) error {
	user, err := r.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	graphUID := ""
	if user.ProviderID != nil {
		graphUID = *user.ProviderID
	}

	locked, err := r.locker.Acquire(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		log.Printf("Sync already running for user %s, skipping reschedule", user.ID)
		return nil
	}
	defer func() {
		if releaseErr := r.locker.Release(context.WithoutCancel(ctx), user.ID); releaseErr != nil {
			log.Printf("Failed to release sync lock for user %s: %v", user.ID, releaseErr)
		}
	}()

	existing, err := r.taskRepo.GetOpenByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load open tasks: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	result, err := r.scheduler.Schedule(nil, existing)
	if err != nil {
		return fmt.Errorf("failed to reschedule tasks: %w", err)
	}
	if len(result.Reassigned) == 0 {
		log.Printf("Schedule already stable for user %s (%d open tasks)", user.ID, len(existing))
		return nil
	}

	deadlines := make(map[uuid.UUID]time.Time, len(result.Reassigned))
	for _, re := range result.Reassigned {
		deadlines[re.Task.ID] = re.Slot
	}
	if err := r.taskRepo.BulkUpdateDeadlines(ctx, deadlines); err != nil {
		return fmt.Errorf("failed to move task deadlines: %w", err)
	}

	for _, re := range result.Reassigned {
		if graphUID == "" || re.Task.RemoteTaskID == nil || re.Task.RemoteListID == nil {
			continue
		}
		slot := re.Slot
		re.Task.Deadline = &slot
		if err := r.remote.UpdateTask(ctx, graphUID, *re.Task.RemoteListID, *re.Task.RemoteTaskID, re.Task); err != nil {
			log.Printf("Failed to push moved deadline for task %s: %v", re.Task.ID, err)
		}
	}

	log.Printf("Rescheduled %d of %d open tasks for user %s", len(result.Reassigned), len(existing), user.ID)
	return nil
}
