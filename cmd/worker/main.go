package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kcarante/thinktasker/internal/config"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/logger"
	"github.com/kcarante/thinktasker/internal/queue"
	"github.com/kcarante/thinktasker/internal/services/ai"
	"github.com/kcarante/thinktasker/internal/services/graph"
	"github.com/kcarante/thinktasker/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("sync_interval_minutes", cfg.SyncIntervalMinutes),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		migrateCancel()
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrateCancel()

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	taskRepo := database.NewTaskRepository(db)
	patternRepo := database.NewPatternRepository(db)
	referenceRepo := database.NewReferenceRepository(db)
	processedRepo := database.NewProcessedMessageRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Initialize Redis for the per-user sync lock
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()
	locker := workers.NewRedisUserLocker(redisClient, workers.DefaultLockTTL)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graph API client for mailbox reads and task mirroring
	if cfg.GraphTenantID == "" || cfg.GraphClientID == "" || cfg.GraphClientSecret == "" {
		zapLogger.Fatal("Graph API credentials are required for the worker")
	}
	graphClient := graph.NewClient(ctx, cfg.GraphTenantID, cfg.GraphClientID, cfg.GraphClientSecret, zapLogger)

	// Create AI provider with logger
	var describer ai.DescriptionProvider
	if cfg.AIProvider == "openai" && cfg.OpenAIKey != "" {
		describer = ai.NewOpenAIProviderWithLogger(
			cfg.OpenAIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			zapLogger,
			debugMode,
		)
		zapLogger.Info("Initialized AI provider",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("No AI provider configured, task descriptions fall back to message subjects")
	}

	scheduler := engine.NewScheduler(cfg.WorkHours, cfg.MaxLookaheadDays)

	// Create the sync pipeline and the reschedule worker
	syncer := workers.NewMailboxSyncer(
		graphClient,
		graphClient,
		describer,
		userRepo,
		taskRepo,
		patternRepo,
		referenceRepo,
		processedRepo,
		locker,
		scheduler,
		engine.NewLanguageGate(),
	)
	syncer.SetListName(cfg.TaskListName)

	rescheduler := workers.NewRescheduler(graphClient, userRepo, taskRepo, locker, scheduler)

	processor := workers.NewJobProcessor(syncer, rescheduler, jobQueue)

	// Periodic per-user sync fan-out
	syncInterval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
	fanout := workers.NewSyncFanout(jobQueue, userRepo, syncInterval, zapLogger)
	go func() {
		if err := fanout.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("Sync fan-out stopped with error", zap.Error(err))
		}
	}()

	// DLQ garbage collection, hourly with 24 hour retention
	dlqGC := queue.NewGarbageCollector(jobQueue, 1*time.Hour, 24*time.Hour)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("DLQ garbage collector stopped with error", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("Message channel closed")
					return
				}

				// Process job
				if err := processor.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("Failed to process job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("Queue error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("Worker stopped")
}
