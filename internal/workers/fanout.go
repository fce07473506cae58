package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/queue"
	"go.uber.org/zap"
)

// DefaultSyncInterval is how often each user's mailbox is synced
const DefaultSyncInterval = 15 * time.Minute

// SyncFanout periodically enqueues a mailbox sync job for every user
type SyncFanout struct {
	jobQueue queue.JobQueue
	userRepo database.UserRepositoryInterface
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncFanout creates a sync fanout. A zero interval selects
// DefaultSyncInterval.
func NewSyncFanout(jobQueue queue.JobQueue, userRepo database.UserRepositoryInterface, interval time.Duration, logger *zap.Logger) *SyncFanout {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncFanout{
		jobQueue: jobQueue,
		userRepo: userRepo,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the fanout loop until ctx is cancelled. One round fires
// immediately so a fresh deployment does not wait a full interval.
func (f *SyncFanout) Start(ctx context.Context) error {
	if err := f.enqueueSyncJobs(ctx); err != nil {
		f.logger.Warn("sync_fanout_round_failed", zap.Error(err))
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.enqueueSyncJobs(ctx); err != nil {
				f.logger.Warn("sync_fanout_round_failed", zap.Error(err))
			}
		}
	}
}

// enqueueSyncJobs creates one mailbox sync job per user. Jobs expire
// before the next round so a backed-up queue does not accumulate
// duplicate work; the per-user lock catches whatever slips through.
func (f *SyncFanout) enqueueSyncJobs(ctx context.Context) error {
	users, err := f.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	enqueued := 0
	for _, user := range users {
		if err := f.enqueueSyncJob(ctx, user.ID); err != nil {
			f.logger.Warn("failed_to_enqueue_sync_job",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	f.logger.Info("enqueued_sync_jobs",
		zap.Int("user_count", len(users)),
		zap.Int("enqueued", enqueued),
	)
	return nil
}

func (f *SyncFanout) enqueueSyncJob(ctx context.Context, userID uuid.UUID) error {
	job := queue.NewJob(queue.JobTypeMailboxSync, userID)
	notAfter := time.Now().Add(f.interval)
	job.NotAfter = &notAfter

	if err := f.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue sync job: %w", err)
	}
	return nil
}
