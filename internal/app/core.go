package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/config"
	"github.com/ihovsky/MovieTrackerBot/internal/dispatcher"
	"github.com/ihovsky/MovieTrackerBot/internal/freshness"
	"github.com/ihovsky/MovieTrackerBot/internal/metrics"
	"github.com/ihovsky/MovieTrackerBot/internal/scheduler"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
	"github.com/ihovsky/MovieTrackerBot/internal/subscription"
	"github.com/ihovsky/MovieTrackerBot/internal/tmdb"
)

// Core is the polling pipeline shared by the server and the one-shot CLI
// commands.
type Core struct {
	Repo       *store.SQLiteRepo
	Catalog    *tmdb.Client
	Resolver   *freshness.Resolver
	Engine     *subscription.Engine
	Dispatcher *dispatcher.Dispatcher
	Scheduler  *scheduler.Scheduler
	Metrics    *metrics.Metrics
}

// NewCore opens storage and builds every polling component. reg may be nil.
func NewCore(ctx context.Context, cfg config.Config, log *zap.Logger, messenger dispatcher.Messenger, reg prometheus.Registerer) (*Core, error) {
	m := metrics.New(reg)

	catalog, err := tmdb.New(cfg.TMDBAccessToken, cfg.TMDBBaseURL, cfg.TMDBImageBaseURL, cfg.TMDBLanguage,
		tmdb.WithTimeout(cfg.TMDBTimeout),
		tmdb.WithRateLimit(cfg.TMDBRateLimit),
		tmdb.WithLogger(log.Named("tmdb")),
	)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log.Info("sqlite ready", zap.String("path", cfg.DBPath))

	resolver := freshness.NewResolver(catalog, cfg.Location(), log.Named("freshness"))
	engine := subscription.NewEngine(repo, catalog, resolver, log.Named("engine"), subscription.WithMetrics(m))
	disp := dispatcher.New(repo, catalog, messenger, log.Named("dispatcher"),
		dispatcher.WithMetrics(m),
		dispatcher.WithSendTimeout(cfg.SendTimeout),
	)
	sched := scheduler.New(engine, disp, cfg.Interval(), m, log.Named("scheduler"))

	return &Core{
		Repo:       repo,
		Catalog:    catalog,
		Resolver:   resolver,
		Engine:     engine,
		Dispatcher: disp,
		Scheduler:  sched,
		Metrics:    m,
	}, nil
}

// Close releases storage.
func (c *Core) Close() error {
	return c.Repo.Close()
}
