package telegram

import (
	"fmt"
	"html"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

const (
	overviewLimit = 700
	captionLimit  = 1024 // Telegram photo caption limit
	noData        = "n/a"
)

// truncate cuts s to at most limit runes, ending with "...".
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 3 {
		return string([]rune(s)[:limit])
	}
	return string([]rune(s)[:limit-3]) + "..."
}

func formatRuntime(minutes int) string {
	if minutes <= 0 {
		return noData
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}

// formatRating renders a 0..10 score with up to five stars.
func formatRating(rating float64) string {
	if rating <= 0 {
		return "no rating"
	}
	stars := int(math.Min(5, math.Round(rating/2)))
	return fmt.Sprintf("%.1f/10 %s", rating, strings.Repeat("⭐", stars))
}

func formatGenres(genres []string) string {
	if len(genres) == 0 {
		return noData
	}
	return strings.Join(genres, ", ")
}

func year(c domain.Content) string {
	if c.Date == nil {
		return noData
	}
	return fmt.Sprintf("%d", c.Date.Year())
}

func kindIcon(k domain.ContentKind) string {
	if k == domain.KindSeries {
		return "📺"
	}
	return "🎬"
}

// listLine renders one entry of a trending, search or recommendations list.
func listLine(i int, c domain.Content) string {
	line := fmt.Sprintf("%d. %s <b>%s</b> (%s)", i, kindIcon(c.Kind), html.EscapeString(c.Title), year(c))
	if c.Rating > 0 {
		line += " " + formatRating(c.Rating)
	}
	return line
}

// detailsCard renders the HTML details card. f is only used for series.
func detailsCard(c domain.Content, f domain.Freshness) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>", kindIcon(c.Kind), html.EscapeString(c.Title))
	if c.OriginalTitle != "" && c.OriginalTitle != c.Title {
		fmt.Fprintf(&b, "\n📝 <b>Original title:</b> %s", html.EscapeString(c.OriginalTitle))
	}
	fmt.Fprintf(&b, "\n📅 <b>Released:</b> %s", domain.FormatDate(c.Date))

	switch {
	case c.Movie != nil:
		fmt.Fprintf(&b, "\n⏱ <b>Runtime:</b> %s", formatRuntime(c.Movie.RuntimeMinutes))
	case c.Series != nil:
		fmt.Fprintf(&b, "\n🔢 <b>Seasons:</b> %d", c.Series.NumberOfSeasons)
		fmt.Fprintf(&b, "\n📊 <b>Episodes:</b> %d", c.Series.NumberOfEpisodes)
	}
	fmt.Fprintf(&b, "\n🏆 <b>Rating:</b> %s", formatRating(c.Rating))
	fmt.Fprintf(&b, "\n🎭 <b>Genres:</b> %s", html.EscapeString(formatGenres(c.Genres)))

	if c.Kind == domain.KindSeries {
		if f.LastEpisodeDate != nil {
			fmt.Fprintf(&b, "\n📆 <b>Last episode:</b> %s", domain.FormatDate(f.LastEpisodeDate))
		}
		if f.NextEpisodeDate != nil {
			fmt.Fprintf(&b, "\n⏰ <b>Next episode:</b> %s", domain.FormatDate(f.NextEpisodeDate))
		}
	}

	overview := c.Overview
	if overview == "" {
		overview = "No description."
	}
	fmt.Fprintf(&b, "\n\n📖 <b>Overview:</b>\n%s", html.EscapeString(truncate(overview, overviewLimit)))
	return b.String()
}

// subscriptionsText renders the user's subscription list.
func subscriptionsText(series []domain.Series) string {
	if len(series) == 0 {
		return noSubscriptionsText
	}
	var b strings.Builder
	b.WriteString("👤 <b>Your subscriptions:</b>\n")
	for i, s := range series {
		fmt.Fprintf(&b, "\n%d. %s", i+1, html.EscapeString(s.Title))
		if s.NextEpisodeDate != nil {
			fmt.Fprintf(&b, " (next: %s)", domain.FormatDate(s.NextEpisodeDate))
		}
	}
	return b.String()
}

func settingsText(enabled bool) string {
	state := "on 🔔"
	if !enabled {
		state = "off 🔕"
	}
	return "⚙️ <b>Settings</b>\n\nNew episode notifications: " + state
}
