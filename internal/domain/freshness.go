package domain

import "time"

// LatestSeason picks the highest-numbered season that has at least one
// known episode.
func LatestSeason(seasons []SeasonSummary) (int, bool) {
	best, found := 0, false
	for _, s := range seasons {
		if s.EpisodeCount <= 0 {
			continue
		}
		if !found || s.Number > best {
			best, found = s.Number, true
		}
	}
	return best, found
}

// EpisodeWindow splits episodes around today: the latest date at or before
// today is the last aired one, the earliest date after today is the next one.
// Episodes without an air date are ignored.
func EpisodeWindow(episodes []Episode, today time.Time) Freshness {
	today = DateOf(today)
	var f Freshness
	for _, ep := range episodes {
		if ep.AirDate == nil {
			continue
		}
		d := DateOf(*ep.AirDate)
		if !d.After(today) {
			if f.LastEpisodeDate == nil || d.After(*f.LastEpisodeDate) {
				v := d
				f.LastEpisodeDate = &v
			}
			continue
		}
		if f.NextEpisodeDate == nil || d.Before(*f.NextEpisodeDate) {
			v := d
			f.NextEpisodeDate = &v
		}
	}
	return f
}
