package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kcarante/thinktasker/internal/queue"
	"github.com/kcarante/thinktasker/internal/services/ai"
)

// JobProcessor routes queue messages to the right worker and owns the
// acknowledgement and retry policy.
type JobProcessor struct {
	syncer      *MailboxSyncer
	rescheduler *Rescheduler
	jobQueue    queue.JobQueue // For re-enqueueing jobs with delays
}

// NewJobProcessor creates a job processor
func NewJobProcessor(syncer *MailboxSyncer, rescheduler *Rescheduler, jobQueue queue.JobQueue) *JobProcessor {
	return &JobProcessor{
		syncer:      syncer,
		rescheduler: rescheduler,
		jobQueue:    jobQueue,
	}
}

// ProcessJob processes a job based on its type
func (p *JobProcessor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeMailboxSync:
		if err := p.syncer.ProcessMailboxSyncJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "mailbox sync")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeRescheduleUser:
		if err := p.rescheduler.ProcessRescheduleJob(ctx, job); err != nil {
			// Reschedule jobs are re-issued on the next completion,
			// so a failed one goes straight to the DLQ.
			if nackErr := msg.Nack(false); nackErr != nil {
				log.Printf("Failed to nack reschedule job: %v", nackErr)
			}
			return fmt.Errorf("reschedule failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack reschedule job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with intelligent retry logic
func (p *JobProcessor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error, jobType string) error {
	// Quota errors from the description provider should not retry soon
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if p.jobQueue != nil {
			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedCopy(job, notBefore)); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Re-enqueued %s job %s for retry at %v (quota exhausted)", jobType, job.ID, notBefore)
			return nil
		}

		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Rate limit errors retry with backoff through the delayed exchange
	if ai.IsRateLimitError(err) {
		log.Printf("Rate limited for %s job %s: %v", jobType, job.ID, err)

		if job.CanRetry() && p.jobQueue != nil {
			retryDelay := ai.GetRetryDelay(err, job.RetryCount)
			notBefore := time.Now().Add(retryDelay)

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			if enqueueErr := p.jobQueue.Enqueue(ctx, delayedCopy(job, notBefore)); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v (delay: %v)",
				jobType, job.ID, notBefore, retryDelay)
			return nil
		}
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("%s job %s failed (attempt %d/%d): %v, will retry", jobType, job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// delayedCopy clones a job for delayed re-delivery with an incremented
// retry count.
func delayedCopy(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
