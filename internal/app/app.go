// Package app wires configuration, storage and collaborators into the
// workflow services shared by the HTTP server and the sweep CLI.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/config"
	"github.com/nurpe/cleaning-contracts/internal/db"
	"github.com/nurpe/cleaning-contracts/internal/excel"
	"github.com/nurpe/cleaning-contracts/internal/integration"
	"github.com/nurpe/cleaning-contracts/internal/lock"
	"github.com/nurpe/cleaning-contracts/internal/monitoring"
	"github.com/nurpe/cleaning-contracts/internal/pdf"
	"github.com/nurpe/cleaning-contracts/internal/repository"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	DB       *gorm.DB
	Services *service.Services

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	monitoring.Register(log)

	database, err := db.New(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: database}
	if sqlDB, err := database.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	locker, closeLocker, err := newLocker(ctx, cfg.Lock, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeLocker != nil {
		a.closers = append(a.closers, closeLocker)
	}

	collaborators := integration.New(cfg.Collaborators, log)
	a.Services = service.New(service.Deps{
		Store:    repository.NewStore(database),
		Locker:   locker,
		Notifier: collaborators.Notifier,
		Payments: collaborators.Payments,
		Calendar: collaborators.Calendar,
		Renderer: pdf.NewGenerator(),
		Ledger:   excel.NewGenerator(),
		Workflow: cfg.Workflow,
		Log:      log,
	})
	return a, nil
}

// newLocker picks redis when REDIS_URL is set so several instances share
// per-contract locks; otherwise locks are process-local.
func newLocker(ctx context.Context, cfg config.LockConfig, log zerolog.Logger) (lock.Locker, func() error, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set; using in-process locks")
		return lock.NewLocalLocker(), nil, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Dur("ttl", cfg.TTL).Msg("using redis locks")
	return lock.NewRedisLocker(client, cfg.TTL), client.Close, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// RunSweeper runs the automation sweep every interval until ctx ends.
func RunSweeper(ctx context.Context, sweep *service.SweepService, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("sweep ticker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweep ticker stopped")
			return
		case now := <-ticker.C:
			if _, err := sweep.Run(ctx, now); err != nil {
				log.Error().Err(err).Msg("sweep run failed")
			}
		}
	}
}
