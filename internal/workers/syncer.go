package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/queue"
	"github.com/kcarante/thinktasker/internal/services/ai"
	"github.com/kcarante/thinktasker/internal/services/graph"
)

// languageChecker gates messages on detected language
type languageChecker interface {
	IsEnglish(text string) bool
}

// MailboxSyncer runs the full mailbox sync pipeline for one user:
// fetch unread mail, grow the reference corpus, classify actionable
// messages, extract deadlines, score, prioritize, schedule into work
// slots, mirror to the remote task list and acknowledge the mail.
type MailboxSyncer struct {
	mail       graph.MailReader
	remote     graph.TaskWriter
	describer  ai.DescriptionProvider
	userRepo   database.UserRepositoryInterface
	taskRepo   database.TaskRepositoryInterface
	patterns   database.PatternRepositoryInterface
	reference  database.ReferenceRepositoryInterface
	processed  database.ProcessedMessageRepositoryInterface
	locker     UserLocker
	normalizer *engine.Normalizer
	extractor  *engine.DeadlineExtractor
	scorer     *engine.Scorer
	scheduler  *engine.Scheduler
	language   languageChecker
	listName   string
}

// NewMailboxSyncer creates a mailbox syncer
func NewMailboxSyncer(
	mail graph.MailReader,
	remote graph.TaskWriter,
	describer ai.DescriptionProvider,
	userRepo database.UserRepositoryInterface,
	taskRepo database.TaskRepositoryInterface,
	patterns database.PatternRepositoryInterface,
	reference database.ReferenceRepositoryInterface,
	processed database.ProcessedMessageRepositoryInterface,
	locker UserLocker,
	scheduler *engine.Scheduler,
	language languageChecker,
) *MailboxSyncer {
	return &MailboxSyncer{
		mail:       mail,
		remote:     remote,
		describer:  describer,
		userRepo:   userRepo,
		taskRepo:   taskRepo,
		patterns:   patterns,
		reference:  reference,
		processed:  processed,
		locker:     locker,
		normalizer: engine.NewNormalizer(),
		extractor:  engine.NewDeadlineExtractor(),
		scorer:     engine.NewScorer(),
		scheduler:  scheduler,
		language:   language,
		listName:   graph.DefaultTaskListName,
	}
}

// SetListName overrides the remote task list name
func (s *MailboxSyncer) SetListName(name string) {
	if name != "" {
		s.listName = name
	}
}

// ProcessMailboxSyncJob runs one sync for the job's user. The run is
// serialized per user through the locker; a second job arriving while
// one is in flight is a silent no-op.
func (s *MailboxSyncer) ProcessMailboxSyncJob(ctx context.Context, job *queue.Job) error {
	user, err := s.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.ProviderID == nil {
		return fmt.Errorf("user %s has no provider id, cannot reach mailbox", user.ID)
	}
	graphUID := *user.ProviderID

	ctx = ai.WithUserID(ctx, user.ID.String())
	ctx = ai.WithRequestID(ctx, job.ID.String())

	locked, err := s.locker.Acquire(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		log.Printf("Sync already running for user %s, skipping", user.ID)
		return nil
	}
	defer func() {
		if releaseErr := s.locker.Release(context.WithoutCancel(ctx), user.ID); releaseErr != nil {
			log.Printf("Failed to release sync lock for user %s: %v", user.ID, releaseErr)
		}
	}()

	messages, err := s.mail.ListUnreadMessages(ctx, graphUID)
	if err != nil {
		return fmt.Errorf("failed to list unread messages: %w", err)
	}
	if len(messages) == 0 {
		log.Printf("No unread messages for user %s", user.ID)
		return nil
	}

	patterns, err := s.patterns.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	corpus, err := s.loadCorpus(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var actionable []engine.Candidate
	scanned := make([]string, 0, len(messages))

	for i := range messages {
		msg := &messages[i]
		scanned = append(scanned, msg.ID)

		plain := s.normalizer.StripMarkup(msg.Text())
		if !s.language.IsEnglish(plain) {
			continue
		}

		// Every English message grows the corpus, actionable or not.
		// The statistics must reflect normal traffic, not just tasks.
		tokens := s.normalizer.Normalize(msg.Text())
		corpus.AddDocument(tokens)
		doc := &models.ReferenceDocument{
			ID:      uuid.New(),
			Subject: msg.Subject,
			Body:    plain,
			Tokens:  tokens,
		}
		if err := s.reference.Add(ctx, doc); err != nil {
			return fmt.Errorf("failed to grow corpus: %w", err)
		}

		if len(engine.MatchPatterns(plain, patterns)) == 0 {
			continue
		}

		err := s.processed.MarkProcessed(ctx, user.ID, msg.ID)
		if errors.Is(err, database.ErrAlreadyProcessed) {
			log.Printf("Message %s already processed for user %s", msg.ID, user.ID)
			continue
		}
		if err != nil {
			return err
		}

		var deadlinePtr *time.Time
		if deadline, found := s.extractor.Extract(plain, msg.ReceivedAt); found {
			deadlinePtr = &deadline
		}

		scored := s.scorer.Score(tokens, corpus, msg.Flagged, msg.Important)
		priority := engine.AssignPriority(scored.Score, engine.DaysUntil(deadlinePtr, now))

		actionable = append(actionable, engine.Candidate{
			Subject:         msg.Subject,
			Description:     s.describe(ctx, msg),
			Priority:        priority,
			Deadline:        deadlinePtr,
			SourceMessageID: msg.ID,
			Score:           scored.Score,
		})
	}

	if len(actionable) > 0 {
		if err := s.scheduleAndPersist(ctx, user, actionable); err != nil {
			return err
		}
	}

	// The whole scanned batch is acknowledged, not just the messages
	// that produced tasks; anything left unread comes back on every
	// subsequent fetch and inflates the corpus counts for that run.
	if err := s.mail.BatchMarkRead(ctx, graphUID, scanned); err != nil {
		// Tasks are already persisted and deduplicated by message id,
		// so a failed acknowledgement is retried on the next sync.
		log.Printf("Failed to mark %d messages read for user %s: %v", len(scanned), user.ID, err)
	}

	log.Printf("Synced mailbox for user %s: %d messages scanned, %d tasks created", user.ID, len(messages), len(actionable))
	return nil
}

// loadCorpus rebuilds the in-memory corpus statistics from the stored
// reference documents.
func (s *MailboxSyncer) loadCorpus(ctx context.Context) (*engine.Corpus, error) {
	docs, err := s.reference.LoadTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference corpus: %w", err)
	}
	corpus := engine.NewCorpus()
	for _, tokens := range docs {
		corpus.AddDocument(tokens)
	}
	return corpus, nil
}

// describe asks the AI provider for a one-sentence description and
// falls back to the message's own text when the provider fails.
func (s *MailboxSyncer) describe(ctx context.Context, msg *models.RawMessage) string {
	if s.describer == nil {
		if msg.Subject != "" {
			return msg.Subject
		}
		return msg.BodyPreview
	}
	description, err := s.describer.DescribeTask(ctx, msg.Subject, msg.Text())
	if err != nil {
		log.Printf("Description provider failed for message %s, falling back to message text: %v", msg.ID, err)
		if msg.Subject != "" {
			return msg.Subject
		}
		return msg.BodyPreview
	}
	return description
}

// scheduleAndPersist runs slot scheduling over the new candidates plus
// the user's open tasks, then writes the outcome locally and remotely.
func (s *MailboxSyncer) scheduleAndPersist(ctx context.Context, user *models.User, candidates []engine.Candidate) error {
	graphUID := *user.ProviderID

	existing, err := s.taskRepo.GetOpenByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load open tasks: %w", err)
	}

	result, err := s.scheduler.Schedule(candidates, existing)
	if err != nil {
		return fmt.Errorf("failed to schedule tasks: %w", err)
	}

	listID, err := s.remote.EnsureTaskList(ctx, graphUID, s.listName)
	if err != nil {
		return fmt.Errorf("failed to ensure remote task list: %w", err)
	}

	for _, sc := range result.New {
		slot := sc.Slot
		task := &models.ExtractedTask{
			ID:              uuid.New(),
			UserID:          user.ID,
			Subject:         sc.Subject,
			Description:     sc.Description,
			Priority:        sc.Priority,
			Status:          models.TaskStatusOpen,
			Deadline:        &slot,
			SourceMessageID: &sc.SourceMessageID,
			RelevanceScore:  sc.Score,
		}
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		remoteID, err := s.remote.CreateTask(ctx, graphUID, listID, task)
		if err != nil {
			// The local task stands on its own; mirroring catches up
			// on the next update.
			log.Printf("Failed to mirror task %s remotely: %v", task.ID, err)
			continue
		}
		task.RemoteTaskID = &remoteID
		task.RemoteListID = &listID
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to record remote task id: %w", err)
		}
	}

	if len(result.Reassigned) > 0 {
		deadlines := make(map[uuid.UUID]time.Time, len(result.Reassigned))
		for _, r := range result.Reassigned {
			deadlines[r.Task.ID] = r.Slot
		}
		if err := s.taskRepo.BulkUpdateDeadlines(ctx, deadlines); err != nil {
			return fmt.Errorf("failed to move task deadlines: %w", err)
		}

		for _, r := range result.Reassigned {
			if r.Task.RemoteTaskID == nil || r.Task.RemoteListID == nil {
				continue
			}
			slot := r.Slot
			r.Task.Deadline = &slot
			if err := s.remote.UpdateTask(ctx, graphUID, *r.Task.RemoteListID, *r.Task.RemoteTaskID, r.Task); err != nil {
				log.Printf("Failed to push moved deadline for task %s: %v", r.Task.ID, err)
			}
		}
	}

	return nil
}
