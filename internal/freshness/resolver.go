// Package freshness resolves the last aired and next expected episode dates
// of a series from catalog data.
package freshness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// Source is the slice of the catalog client the resolver needs.
type Source interface {
	Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content
	SeasonDetails(ctx context.Context, seriesID int64, season int) *domain.Season
}

// Resolver computes a series' episode freshness window.
type Resolver struct {
	src Source
	loc *time.Location
	now func() time.Time
	log *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a resolver that evaluates "today" in loc.
func NewResolver(src Source, loc *time.Location, log *zap.Logger, opts ...Option) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{src: src, loc: loc, now: time.Now, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the freshness window of the series. Any lookup failure or
// missing data yields an empty window.
func (r *Resolver) Resolve(ctx context.Context, seriesID int64) domain.Freshness {
	log := r.log.With(zap.Int64("series_id", seriesID))

	content := r.src.Details(ctx, domain.KindSeries, seriesID)
	if content == nil || content.Series == nil {
		log.Debug("no series details")
		return domain.Freshness{}
	}
	season, ok := domain.LatestSeason(content.Series.Seasons)
	if !ok {
		log.Debug("no season with episodes")
		return domain.Freshness{}
	}
	details := r.src.SeasonDetails(ctx, seriesID, season)
	if details == nil || len(details.Episodes) == 0 {
		log.Debug("no episodes", zap.Int("season", season))
		return domain.Freshness{}
	}

	// Evaluated per call so long polling cycles never use a stale date.
	today := domain.Today(r.now(), r.loc)
	return domain.EpisodeWindow(details.Episodes, today)
}
