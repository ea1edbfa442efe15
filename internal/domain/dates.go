package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the catalog and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Today returns the calendar date of now in loc, as UTC midnight so it
// compares directly with parsed air dates.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// DateOf truncates t to its calendar date (in t's own location) at UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsNewer reports whether candidate is strictly later than stored.
// A missing stored date is older than any candidate.
func IsNewer(candidate, stored *time.Time) bool {
	if candidate == nil {
		return false
	}
	if stored == nil {
		return true
	}
	return DateOf(*candidate).After(DateOf(*stored))
}

// FormatDate renders a calendar date as DD.MM.YYYY, or "n/a" when unknown.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	return t.Format("02.01.2006")
}

// NewEpisodeMessage builds the stored notification body for a freshly aired episode.
func NewEpisodeMessage(title string, aired time.Time, next *time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New episode of «%s» aired on %s.", strings.TrimSpace(title), FormatDate(&aired))
	if next != nil {
		fmt.Fprintf(&b, "\n⏰ Next episode: %s.", FormatDate(next))
	}
	return b.String()
}
