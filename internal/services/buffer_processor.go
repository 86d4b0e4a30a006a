package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/internal/infrastructure/buffer"
	"github.com/fastygo/assettrack/usecase"
)

var errProcessorMissing = errors.New("outbox processor not configured")

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// DrainReport summarizes one drain pass.
type DrainReport struct {
	Sent     int `json:"sent"`
	Requeued int `json:"requeued"`
	Dropped  int `json:"dropped"`
	Expired  int `json:"expired"`
}

// BufferProcessor replays queued remote logouts against the backend.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	auth    usecase.AuthAPI
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	auth usecase.AuthAPI,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		auth:    auth,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	// cron rounds sub-second delays up to one second.
	schedule := "@every " + cfg.Interval.String()
	drainTimeout := cfg.Interval
	if drainTimeout < time.Second {
		drainTimeout = time.Second
	}
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if _, err := bp.Drain(ctx); err != nil {
			bp.logger.Error("outbox drain failed", zap.Error(err))
		}
	}); err != nil {
		bp.logger.Error("failed to schedule outbox drain", zap.String("schedule", schedule), zap.Error(err))
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("outbox processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("outbox processor stopped")
}

// Drain replays queued items synchronously. Items older than the retention
// window are dropped first; nothing is sent while the backend is offline.
func (bp *BufferProcessor) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if bp == nil || bp.store == nil {
		return report, nil
	}

	expired, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
	if err != nil {
		return report, err
	}
	report.Expired = expired

	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping outbox drain (offline)")
		return report, nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if err := bp.processItem(ctx, item); err != nil {
			bp.logger.Warn("failed to replay outbox item",
				zap.String("item_id", item.ID),
				zap.String("operation", item.Operation),
				zap.Error(err))

			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = bp.store.Remove(item)
				report.Dropped++
				continue
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			report.Requeued++
			continue
		}

		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge replayed outbox item", zap.Error(err))
		}
		report.Sent++
	}
	return report, nil
}

// Enqueue persists an item for a later drain.
func (bp *BufferProcessor) Enqueue(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errProcessorMissing
	}
	if err := bp.store.Enqueue(item); err != nil {
		return err
	}
	bp.logger.Info("remote call queued for retry", zap.String("operation", item.Operation), zap.Int64("user_id", item.UserID))
	return nil
}

// Size returns the number of queued items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Operation {
	case buffer.OperationLogout:
		err := bp.auth.Logout(ctx, item.Token)
		// A rejected token is already revoked.
		if domain.IsDomainError(err, domain.ErrCodeSessionExpired) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unsupported operation %s", item.Operation)
	}
}
