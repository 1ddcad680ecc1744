package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/questa/internal/identity"
	playerCommands "github.com/felixgeelhaar/questa/internal/player/application/commands"
	playerQueries "github.com/felixgeelhaar/questa/internal/player/application/queries"
	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	playerPersistence "github.com/felixgeelhaar/questa/internal/player/infrastructure/persistence"
	questCommands "github.com/felixgeelhaar/questa/internal/quests/application/commands"
	questQueries "github.com/felixgeelhaar/questa/internal/quests/application/queries"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	questPersistence "github.com/felixgeelhaar/questa/internal/quests/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/questa/internal/shared/application"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/questa/internal/shared/infrastructure/persistence"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	statsPersistence "github.com/felixgeelhaar/questa/internal/stats/infrastructure/persistence"
	syncQueries "github.com/felixgeelhaar/questa/internal/sync/application/queries"
	"github.com/felixgeelhaar/questa/internal/sync/application/scheduler"
	"github.com/felixgeelhaar/questa/internal/sync/application/subscribers"
	"github.com/felixgeelhaar/questa/internal/sync/application/workers"
	syncDomain "github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/dedupe"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/remote"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/tokencache"
	"github.com/felixgeelhaar/questa/pkg/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Local store
	DB *sql.DB

	// Remote store backends (only the configured one is non-nil)
	RemotePool *pgxpool.Pool

	// Redis
	RedisClient *redis.Client

	// Repositories
	QuestRepo  questsDomain.Repository
	StatsRepo  statsDomain.Repository
	PlayerRepo playerDomain.Repository
	OutboxRepo outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Per-user mutation locks
	UserLocks *playerCommands.UserLocks

	// Quest Command Handlers
	CreateQuestHandler   *questCommands.CreateQuestHandler
	UpdateQuestHandler   *questCommands.UpdateQuestHandler
	CompleteQuestHandler *questCommands.CompleteQuestHandler
	SkipQuestHandler     *questCommands.SkipQuestHandler

	// Quest Query Handlers
	ListQuestsHandler *questQueries.ListQuestsHandler

	// Player Command Handlers
	GrantRewardHandler      *playerCommands.GrantRewardHandler
	ApplyGiftHandler        *playerCommands.ApplyGiftHandler
	UseItemHandler          *playerCommands.UseItemHandler
	ActivateBoostHandler    *playerCommands.ActivateBoostHandler
	ResolveDayChangeHandler *playerCommands.ResolveDayChangeHandler

	// Player Query Handlers
	GetPlayerHandler *playerQueries.GetPlayerHandler

	// Sync
	Sessions          identity.Provider
	RemoteStore       syncDomain.RemoteStore
	TokenCache        syncDomain.TokenCache
	PushDedupe        syncDomain.IdempotencyRegistry
	SyncTracker       *syncDomain.Tracker
	ProfileSyncWorker *workers.ProfileSyncWorker
	QuestSyncWorker   *workers.QuestSyncWorker
	StatsSyncWorker   *workers.StatsSyncWorker
	SyncScheduler     *scheduler.Scheduler
	SyncDispatcher    *SyncDispatcher
	SyncStatusHandler *syncQueries.SyncStatusHandler

	// Event Subscribers
	PushSubscriber    *subscribers.PushSubscriber
	InProcessEventBus *eventbus.InProcessEventBus
	PushConsumer      *eventbus.RabbitMQConsumer

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Open the local SQLite store
	path := cfg.DatabasePath
	if path == "" {
		path = sqlite.DefaultPath()
	}
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.DB = db
	logger.Info("local store ready", "path", path)

	// Connect to Redis (optional; memory fallbacks otherwise)
	if cfg.RedisEnabled {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				_ = db.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, using in-memory caches", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					_ = db.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, using in-memory caches", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	if c.RedisClient != nil {
		c.TokenCache = tokencache.NewRedisCache(c.RedisClient, cfg.TokenCacheTTL)
		c.PushDedupe = dedupe.NewRedisRegistry(c.RedisClient, cfg.PushDedupeTTL)
	} else {
		c.TokenCache = tokencache.NewMemoryCache()
		c.PushDedupe = dedupe.NewMemoryRegistry(cfg.PushDedupeTTL)
	}

	// Create repositories
	c.QuestRepo = questPersistence.NewSQLiteQuestRepository(db)
	c.StatsRepo = statsPersistence.NewSQLiteStatsRepository(db)
	c.PlayerRepo = playerPersistence.NewSQLitePlayerRepository(db)
	c.OutboxRepo = outbox.NewSQLiteRepository(db)
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(db)
	c.UserLocks = playerCommands.NewUserLocks()

	// Create event publisher
	if cfg.RabbitMQEnabled {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				_ = db.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			c.EventPublisher = publisher
		}
	} else {
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	}

	// Create player command handlers
	c.GrantRewardHandler = playerCommands.NewGrantRewardHandler(c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)
	c.ApplyGiftHandler = playerCommands.NewApplyGiftHandler(c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)
	c.UseItemHandler = playerCommands.NewUseItemHandler(c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)
	c.ActivateBoostHandler = playerCommands.NewActivateBoostHandler(c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)
	c.ResolveDayChangeHandler = playerCommands.NewResolveDayChangeHandler(c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)

	// Create player query handlers
	c.GetPlayerHandler = playerQueries.NewGetPlayerHandler(c.PlayerRepo)

	// Create quest command handlers
	c.CreateQuestHandler = questCommands.NewCreateQuestHandler(c.QuestRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateQuestHandler = questCommands.NewUpdateQuestHandler(c.QuestRepo, c.OutboxRepo, c.UnitOfWork)
	c.CompleteQuestHandler = questCommands.NewCompleteQuestHandler(c.QuestRepo, c.StatsRepo, c.PlayerRepo, c.OutboxRepo, c.UnitOfWork, c.UserLocks)
	c.SkipQuestHandler = questCommands.NewSkipQuestHandler(c.QuestRepo, c.StatsRepo, c.UnitOfWork)

	// Create quest query handlers
	c.ListQuestsHandler = questQueries.NewListQuestsHandler(c.QuestRepo)

	// Resolve the device session
	c.Sessions = sessionProvider(cfg, logger)

	// Create the remote store
	store, err := newRemoteStore(ctx, cfg, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.RemoteStore = store

	// Create sync workers
	c.SyncTracker = syncDomain.NewTracker()
	c.ProfileSyncWorker = workers.NewProfileSyncWorker(c.Sessions, c.PlayerRepo, c.RemoteStore, c.SyncTracker, logger)
	c.QuestSyncWorker = workers.NewQuestSyncWorker(c.Sessions, c.QuestRepo, c.RemoteStore, c.TokenCache, c.SyncTracker, logger)
	c.StatsSyncWorker = workers.NewStatsSyncWorker(c.Sessions, c.StatsRepo, c.RemoteStore, c.SyncTracker, logger)

	// Create the sync scheduler and dispatcher
	schedulerConfig := scheduler.Config{
		BackoffBase:       cfg.SyncBackoffBase,
		BackoffMax:        cfg.SyncBackoffMax,
		MaxAttempts:       cfg.SyncMaxAttempts,
		DateCheckInterval: cfg.DateCheckInterval,
	}
	c.SyncScheduler = scheduler.New(scheduler.AlwaysOnline{}, schedulerConfig, logger)
	c.SyncDispatcher = NewSyncDispatcher(c.SyncScheduler, c.ProfileSyncWorker, c.QuestSyncWorker, c.StatsSyncWorker)

	// Create sync query handlers
	c.SyncStatusHandler = syncQueries.NewSyncStatusHandler(c.QuestRepo, c.StatsRepo, c.PlayerRepo, c.SyncTracker)

	// Create the push subscriber and its consumer
	c.PushSubscriber = subscribers.NewPushSubscriber(c.Sessions, c.PushDedupe, c.TokenCache, c.ApplyGiftHandler, c.SyncDispatcher, logger)

	if cfg.RabbitMQEnabled {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, eventbus.NewConsumerRegistry(logger))
		if err != nil {
			if !cfg.IsDevelopment() {
				_ = db.Close()
				return nil, fmt.Errorf("failed to create push consumer: %w", err)
			}
			logger.Warn("RabbitMQ not available, consuming pushes in-process", "error", err)
		} else {
			consumer.RegisterConsumer(c.PushSubscriber)
			c.PushConsumer = consumer
		}
	}
	if c.PushConsumer == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.InProcessEventBus.RegisterConsumer(c.PushSubscriber)
	}

	// Create outbox processor
	processorConfig := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	return c, nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.PushConsumer != nil {
		_ = c.PushConsumer.Close()
	}
	if c.EventPublisher != nil {
		_ = c.EventPublisher.Close()
	}
	if c.RemotePool != nil {
		c.RemotePool.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

// sessionProvider builds the session provider from the configured
// credentials. Missing credentials mean an unauthenticated device, not
// an error: the engine stays usable offline and syncs no-op.
func sessionProvider(cfg *config.Config, logger *slog.Logger) identity.Provider {
	if cfg.UserID == "" || cfg.SessionToken == "" {
		logger.Info("no session configured, sync runs will no-op")
		return identity.NewStaticProvider(nil)
	}

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		logger.Warn("invalid QUESTA_USER_ID, sync runs will no-op", "error", err)
		return identity.NewStaticProvider(nil)
	}

	session := &identity.Session{
		UserID: userID,
		Token:  cfg.SessionToken,
	}
	if cfg.AccountCreatedAt != "" {
		createdAt, err := time.Parse("2006-01-02", cfg.AccountCreatedAt)
		if err != nil {
			logger.Warn("invalid QUESTA_ACCOUNT_CREATED_AT, first sync pulls from today", "error", err)
		} else {
			session.AccountCreatedAt = createdAt
		}
	}
	return identity.NewStaticProvider(session)
}

func newRemoteStore(ctx context.Context, cfg *config.Config, c *Container) (syncDomain.RemoteStore, error) {
	switch cfg.RemoteKind {
	case "rest":
		tokenSource := identity.NewTokenSource(c.Sessions)
		return remote.NewRESTStore(cfg.RemoteBaseURL, tokenSource, cfg.RemoteTimeout), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to remote database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping remote database: %w", err)
		}
		c.RemotePool = pool
		c.Logger.Info("connected to remote database")
		return remote.NewPostgresStore(pool), nil
	case "memory":
		return remote.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown remote store kind %q", cfg.RemoteKind)
	}
}
