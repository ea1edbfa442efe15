// Package subscription owns subscribe/unsubscribe semantics, the
// notifications flag and detection of newly aired episodes.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/metrics"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
)

// Catalog resolves series metadata for new subscriptions.
type Catalog interface {
	Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content
}

// Resolver returns the freshness window of a series.
type Resolver interface {
	Resolve(ctx context.Context, seriesID int64) domain.Freshness
}

// CheckReport summarizes one CheckSeriesUpdates pass.
type CheckReport struct {
	Checked       int
	Updated       int
	Notifications int
	Failed        int
}

// Engine coordinates the store, the catalog and the freshness resolver.
type Engine struct {
	repo     store.Repo
	catalog  Catalog
	resolver Resolver
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics sets the collectors updated by CheckSeriesUpdates.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock overrides the time source used for last_check.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine.
func NewEngine(repo store.Repo, catalog Catalog, resolver Resolver, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		repo:     repo,
		catalog:  catalog,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	return e
}

// Subscribe links the user to the series. It returns false when the user was
// already subscribed and domain.ErrContentNotFound when the catalog has no
// such series.
func (e *Engine) Subscribe(ctx context.Context, userID, seriesID int64) (bool, error) {
	content := e.catalog.Details(ctx, domain.KindSeries, seriesID)
	if content == nil {
		return false, fmt.Errorf("series %d: %w", seriesID, domain.ErrContentNotFound)
	}
	created, err := e.repo.Subscribe(ctx, userID, domain.Series{
		ID:            seriesID,
		Title:         content.Title,
		OriginalTitle: content.OriginalTitle,
		PosterPath:    content.PosterPath,
	})
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	if created {
		e.metrics.Subscriptions.WithLabelValues("subscribe").Inc()
		e.log.Info("subscribed", zap.Int64("user_id", userID), zap.Int64("series_id", seriesID))
	}
	return created, nil
}

// Unsubscribe removes the link and reports whether one existed.
func (e *Engine) Unsubscribe(ctx context.Context, userID, seriesID int64) (bool, error) {
	removed, err := e.repo.Unsubscribe(ctx, userID, seriesID)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	if removed {
		e.metrics.Subscriptions.WithLabelValues("unsubscribe").Inc()
		e.log.Info("unsubscribed", zap.Int64("user_id", userID), zap.Int64("series_id", seriesID))
	}
	return removed, nil
}

// ToggleNotifications flips the user's notification flag and returns the new
// state.
func (e *Engine) ToggleNotifications(ctx context.Context, userID int64) (bool, error) {
	enabled, err := e.repo.ToggleNotifications(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggle notifications: %w", err)
	}
	e.log.Info("notifications toggled", zap.Int64("user_id", userID), zap.Bool("enabled", enabled))
	return enabled, nil
}

// IsSubscribed reports whether the user follows the series.
func (e *Engine) IsSubscribed(ctx context.Context, userID, seriesID int64) (bool, error) {
	return e.repo.IsSubscribed(ctx, userID, seriesID)
}

// Subscriptions lists the user's series.
func (e *Engine) Subscriptions(ctx context.Context, userID int64) ([]domain.Series, error) {
	return e.repo.ListSubscriptions(ctx, userID)
}

// CheckSeriesUpdates resolves freshness for every subscribed series and
// enqueues one notification per enabled subscriber when a strictly newer
// episode has aired. Per-series failures are logged and counted; only a
// failure to list series or a cancelled context is returned.
func (e *Engine) CheckSeriesUpdates(ctx context.Context) (CheckReport, error) {
	var report CheckReport

	all, err := e.repo.ListSubscribedSeries(ctx)
	if err != nil {
		return report, fmt.Errorf("list subscribed series: %w", err)
	}

	for _, s := range all {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		e.metrics.SeriesChecked.Inc()

		created, updated, err := e.checkOne(ctx, s)
		if err != nil {
			report.Failed++
			e.metrics.SeriesCheckErrors.Inc()
			e.log.Error("series check failed", zap.Int64("series_id", s.ID), zap.Error(err))
			continue
		}
		if updated {
			report.Updated++
			report.Notifications += created
		}
	}
	return report, nil
}

func (e *Engine) checkOne(ctx context.Context, s domain.Series) (int, bool, error) {
	log := e.log.With(zap.Int64("series_id", s.ID))
	checkedAt := e.now()

	f := e.resolver.Resolve(ctx, s.ID)
	if f.Empty() {
		// No data: keep the stored dates, record the attempt.
		return 0, false, e.repo.TouchSeries(ctx, s.ID, checkedAt)
	}

	if !domain.IsNewer(f.LastEpisodeDate, s.LastEpisodeDate) {
		return 0, false, e.repo.RefreshSeries(ctx, s.ID, f.NextEpisodeDate, checkedAt)
	}

	applied, created, err := e.repo.RecordNewEpisode(ctx, store.NewEpisode{
		SeriesID:        s.ID,
		LastEpisodeDate: *f.LastEpisodeDate,
		NextEpisodeDate: f.NextEpisodeDate,
		CheckedAt:       checkedAt,
		Message:         domain.NewEpisodeMessage(s.Title, *f.LastEpisodeDate, f.NextEpisodeDate),
	})
	if err != nil {
		return 0, false, fmt.Errorf("record new episode: %w", err)
	}
	if !applied {
		// A concurrent pass already stored this date.
		return 0, false, nil
	}
	e.metrics.EpisodesDetected.Inc()
	e.metrics.NotificationsCreated.Add(float64(created))
	log.Info("new episode detected",
		zap.String("aired", f.LastEpisodeDate.Format(domain.DateLayout)),
		zap.Int("notifications", created),
	)
	return created, true, nil
}
