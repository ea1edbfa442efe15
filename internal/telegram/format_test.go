package telegram

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	long := strings.Repeat("я", 800)
	got := truncate(long, overviewLimit)
	if utf8.RuneCountInString(got) != overviewLimit || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation: %d runes", utf8.RuneCountInString(got))
	}
}

func TestFormatRuntime(t *testing.T) {
	cases := map[int]string{0: noData, 45: "45 min", 60: "1 h 0 min", 148: "2 h 28 min"}
	for in, want := range cases {
		if got := formatRuntime(in); got != want {
			t.Fatalf("formatRuntime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRating(t *testing.T) {
	if got := formatRating(0); got != "no rating" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatRating(8.4); got != "8.4/10 ⭐⭐⭐⭐" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatRating(10); strings.Count(got, "⭐") != 5 {
		t.Fatalf("expected five stars, got %q", got)
	}
}

func TestDetailsCardSeries(t *testing.T) {
	last := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	c := domain.Content{
		Kind:          domain.KindSeries,
		ID:            1,
		Title:         "Tom & Jerry",
		OriginalTitle: "Tom and Jerry",
		Overview:      "<cat> chases mouse",
		Genres:        []string{"Animation"},
		Series:        &domain.SeriesInfo{NumberOfSeasons: 2, NumberOfEpisodes: 20},
	}
	card := detailsCard(c, domain.Freshness{LastEpisodeDate: &last, NextEpisodeDate: &next})

	for _, want := range []string{
		"Tom &amp; Jerry",
		"Original title:</b> Tom and Jerry",
		"Seasons:</b> 2",
		"Last episode:</b> 08.01.2024",
		"Next episode:</b> 15.01.2024",
		"&lt;cat&gt; chases mouse",
	} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
}

func TestDetailsCardMovie(t *testing.T) {
	c := domain.Content{Kind: domain.KindMovie, Title: "Inception", Movie: &domain.MovieInfo{RuntimeMinutes: 148}}
	card := detailsCard(c, domain.Freshness{})
	if !strings.Contains(card, "Runtime:</b> 2 h 28 min") || strings.Contains(card, "Seasons") {
		t.Fatalf("unexpected movie card:\n%s", card)
	}
	if !strings.Contains(card, "Released:</b> n/a") {
		t.Fatalf("expected unknown date:\n%s", card)
	}
}

func TestSubscriptionsText(t *testing.T) {
	if got := subscriptionsText(nil); got != noSubscriptionsText {
		t.Fatalf("unexpected %q", got)
	}
	got := subscriptionsText([]domain.Series{{ID: 1, Title: "Dark"}, {ID: 2, Title: "Lost"}})
	if !strings.Contains(got, "1. Dark") || !strings.Contains(got, "2. Lost") {
		t.Fatalf("unexpected %q", got)
	}
}
