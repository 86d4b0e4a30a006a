package main

import (
	"context"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/api/client"
	"github.com/fastygo/assettrack/internal/config"
	boltInfra "github.com/fastygo/assettrack/internal/infrastructure/bolt"
	"github.com/fastygo/assettrack/internal/infrastructure/buffer"
	"github.com/fastygo/assettrack/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/assettrack/internal/infrastructure/redis"
	"github.com/fastygo/assettrack/internal/services"
	"github.com/fastygo/assettrack/internal/services/lifecycle"
	"github.com/fastygo/assettrack/pkg/credentials"
	"github.com/fastygo/assettrack/repository"
	boltRepo "github.com/fastygo/assettrack/repository/bolt"
	redisRepo "github.com/fastygo/assettrack/repository/redis"
	"github.com/fastygo/assettrack/usecase"
	"github.com/fastygo/assettrack/usecase/plan"
	"github.com/fastygo/assettrack/usecase/session"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	lifecycle *lifecycle.Manager

	api       *client.Client
	monitor   *monitor.Monitor
	processor *services.BufferProcessor
	sessions  *session.Manager
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, logger)

	db, err := boltInfra.Open(cfg.Store.BoltPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	manager.Register("bolt", func(ctx context.Context) error {
		return db.Close()
	})

	store, err := sessionStore(ctx, cfg, db, manager)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	tokens := credentials.NewSlot()
	api := client.New(client.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		HealthPath: cfg.API.HealthPath,
	}, tokens, logger.Named("api"))

	outbox := buffer.NewStore(db)
	mon := monitor.New(api, outbox, cfg.Monitor.Interval, logger.Named("monitor"))
	processor := services.NewBufferProcessor(outbox, mon, api, logger.Named("outbox"), services.ProcessorConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetry,
		Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	})

	sessions := session.New(session.Deps{
		Auth:      api,
		Orgs:      api,
		Validator: plan.New(api, logger.Named("plan")),
		Store:     store,
		Tokens:    tokens,
		Outbox:    services.NewBufferBridge(processor),
		Events:    usecase.NewBroadcaster(),
	}, logger.Named("session"))

	return &app{
		cfg:       cfg,
		logger:    logger,
		lifecycle: manager,
		api:       api,
		monitor:   mon,
		processor: processor,
		sessions:  sessions,
	}, nil
}

func sessionStore(ctx context.Context, cfg *config.Config, db *bbolt.DB, manager *lifecycle.Manager) (repository.SessionRepository, error) {
	if cfg.Store.Driver != config.DriverRedis {
		return boltRepo.NewSessionRepository(db), nil
	}
	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})
	return redisRepo.NewSessionRepository(redisClient, cfg.Redis.KeyPrefix), nil
}

func (a *app) Close() error {
	return a.lifecycle.Shutdown(context.Background())
}
