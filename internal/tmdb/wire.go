package tmdb

import (
	"strings"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// result is a list entry as returned by trending, search, popular and
// recommendations endpoints.
type result struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	MediaType     string  `json:"media_type"`
	VoteAverage   float64 `json:"vote_average"`
}

type listResponse struct {
	Page         int      `json:"page"`
	Results      []result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type genre struct {
	Name string `json:"name"`
}

type seasonSummary struct {
	SeasonNumber int `json:"season_number"`
	EpisodeCount int `json:"episode_count"`
}

// details covers both /movie/{id} and /tv/{id}.
type details struct {
	result
	Genres           []genre         `json:"genres"`
	Runtime          int             `json:"runtime"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	Seasons          []seasonSummary `json:"seasons"`
}

type episode struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date"`
}

type seasonDetails struct {
	SeasonNumber int       `json:"season_number"`
	Episodes     []episode `json:"episodes"`
}

// kindOf maps TMDB media types onto content kinds. People and unknown types
// yield false.
func kindOf(mediaType string, fallback domain.ContentKind) (domain.ContentKind, bool) {
	switch mediaType {
	case "":
		return fallback, fallback.Valid()
	case "movie":
		return domain.KindMovie, true
	case "tv":
		return domain.KindSeries, true
	}
	return "", false
}

func (r result) toContent(kind domain.ContentKind) domain.Content {
	c := domain.Content{
		Kind:       kind,
		ID:         r.ID,
		Overview:   strings.TrimSpace(r.Overview),
		PosterPath: r.PosterPath,
		Rating:     r.VoteAverage,
	}
	raw := r.ReleaseDate
	if kind == domain.KindSeries {
		c.Title, c.OriginalTitle, raw = r.Name, r.OriginalName, r.FirstAirDate
	} else {
		c.Title, c.OriginalTitle = r.Title, r.OriginalTitle
	}
	// The catalog occasionally returns malformed dates; treat them as unknown.
	c.Date, _ = domain.ParseAirDate(raw)
	return c
}

func (d details) toContent(kind domain.ContentKind) *domain.Content {
	c := d.result.toContent(kind)
	for _, g := range d.Genres {
		if g.Name != "" {
			c.Genres = append(c.Genres, g.Name)
		}
	}
	if kind == domain.KindMovie {
		c.Movie = &domain.MovieInfo{RuntimeMinutes: d.Runtime}
		return &c
	}
	info := &domain.SeriesInfo{
		NumberOfSeasons:  d.NumberOfSeasons,
		NumberOfEpisodes: d.NumberOfEpisodes,
	}
	for _, s := range d.Seasons {
		info.Seasons = append(info.Seasons, domain.SeasonSummary{Number: s.SeasonNumber, EpisodeCount: s.EpisodeCount})
	}
	c.Series = info
	return &c
}

func (s seasonDetails) toSeason() *domain.Season {
	season := &domain.Season{Number: s.SeasonNumber}
	for _, ep := range s.Episodes {
		air, _ := domain.ParseAirDate(ep.AirDate)
		season.Episodes = append(season.Episodes, domain.Episode{
			Number:  ep.EpisodeNumber,
			Name:    ep.Name,
			AirDate: air,
		})
	}
	return season
}
