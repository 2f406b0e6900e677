package jobs

import (
	"context"
	"time"

	"rov_inventory_go/config"
	"rov_inventory_go/logger"
	"rov_inventory_go/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionCleanupSpec = "0 * * * *"  // hourly
	exportPruneSpec    = "30 3 * * *" // daily, off hours
	monitorPruneSpec   = "@every 15m"
	sweepSpec          = "@every 1m"
)

// StartScheduler registers the maintenance jobs and starts the cron runner.
// sweeps run every minute, e.g. expiring rate limiter buckets. The caller
// stops the runner on shutdown.
func StartScheduler(database *gorm.DB, cfg *config.Config, sweeps ...func()) (*cron.Cron, error) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(sessionCleanupSpec, func() { CleanupSessions(database) }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(exportPruneSpec, func() {
		PruneExpiredExports(context.Background(), database, services.Storage, cfg.ExportRetentionDays)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(monitorPruneSpec, services.Monitor.Prune); err != nil {
		return nil, err
	}

	for _, sweep := range sweeps {
		if _, err := c.AddFunc(sweepSpec, sweep); err != nil {
			return nil, err
		}
	}

	c.Start()
	logger.Info("[CRON] Scheduler started", zap.Int("jobs", len(c.Entries())))
	return c, nil
}

// CleanupSessions purges expired browser sessions.
func CleanupSessions(database *gorm.DB) {
	n, err := services.CleanupExpiredSessions(database)
	if err != nil {
		logger.Error("[JOB] Session cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("[JOB] Cleaned up expired sessions", zap.Int64("count", n))
	}
}

// PruneExpiredExports deletes archived exports older than retentionDays.
func PruneExpiredExports(ctx context.Context, database *gorm.DB, store services.StorageProvider, retentionDays int) {
	n, err := services.PruneExports(ctx, database, store, retentionDays, time.Now())
	if err != nil {
		logger.Error("[JOB] Export retention failed", zap.Int("deleted", n), zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("[JOB] Pruned archived exports", zap.Int("count", n))
	}
}
