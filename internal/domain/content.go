package domain

import (
	"fmt"
	"time"
)

// ContentKind tags the two catalog content variants.
type ContentKind string

const (
	KindMovie  ContentKind = "movie"
	KindSeries ContentKind = "series"
)

// ParseKind accepts both the stored names and the catalog's "tv" alias.
func ParseKind(s string) (ContentKind, error) {
	switch s {
	case "movie", "m":
		return KindMovie, nil
	case "series", "tv", "s":
		return KindSeries, nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Valid reports whether k is one of the known kinds.
func (k ContentKind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Content is a normalized catalog record. Exactly one of Movie or Series is
// set, matching Kind.
type Content struct {
	Kind          ContentKind
	ID            int64
	Title         string
	OriginalTitle string
	Overview      string
	PosterPath    string
	Date          *time.Time // release date for movies, first air date for series
	Rating        float64
	Genres        []string

	Movie  *MovieInfo
	Series *SeriesInfo
}

// MovieInfo holds movie-only fields.
type MovieInfo struct {
	RuntimeMinutes int
}

// SeriesInfo holds series-only fields.
type SeriesInfo struct {
	NumberOfSeasons  int
	NumberOfEpisodes int
	Seasons          []SeasonSummary
}

// SeasonSummary is a season entry as listed on the series itself.
type SeasonSummary struct {
	Number       int
	EpisodeCount int
}

// Season is the full season payload with its episodes.
type Season struct {
	Number   int
	Episodes []Episode
}

// Episode is a single episode; AirDate is nil when the catalog has no date.
type Episode struct {
	Number  int
	Name    string
	AirDate *time.Time
}

// Freshness is the resolved air-date window of a series.
type Freshness struct {
	LastEpisodeDate *time.Time
	NextEpisodeDate *time.Time
}

// Empty reports whether nothing could be resolved.
func (f Freshness) Empty() bool {
	return f.LastEpisodeDate == nil && f.NextEpisodeDate == nil
}
