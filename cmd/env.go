package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/aggregate"
	"github.com/seopulse/seopulse/internal/ingest"
	"github.com/seopulse/seopulse/internal/resilience"
	"github.com/seopulse/seopulse/internal/store"
	"github.com/seopulse/seopulse/internal/tiering"
	"github.com/seopulse/seopulse/pkg/searchconsole"
)

// appEnv holds the initialized store and pipeline components shared by
// the ingest/aggregate/tier/health/serve commands.
type appEnv struct {
	Store      store.Store
	Gateway    *ingest.Gateway
	Aggregator *aggregate.Engine
	Tiering    *tiering.Engine
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, the query API client, and every pipeline
// engine. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	api := searchconsole.NewClient(cfg.API.Token,
		searchconsole.WithBaseURL(cfg.API.BaseURL),
		searchconsole.WithQPS(cfg.API.QPS),
	)

	retry := resilience.DefaultRetryConfig()
	if cfg.Ingest.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Ingest.MaxAttempts
	}

	gw := ingest.New(api, st,
		ingest.WithRowLimit(cfg.Ingest.RowLimit),
		ingest.WithBatchSize(cfg.Ingest.BatchSize),
		ingest.WithRetry(retry),
	)

	analysisCfg := tiering.DefaultConfig()
	if cfg.Tiering.ConfigPath != "" {
		analysisCfg, err = tiering.LoadConfig(cfg.Tiering.ConfigPath)
		if err != nil {
			zap.L().Warn("tiering config not loaded, using defaults", zap.Error(err))
		}
	}
	if cfg.Tiering.Workers > 0 {
		analysisCfg.Workers = cfg.Tiering.Workers
	}

	return &appEnv{
		Store:      st,
		Gateway:    gw,
		Aggregator: aggregate.New(st),
		Tiering:    tiering.New(st, analysisCfg),
	}, nil
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		return st, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
