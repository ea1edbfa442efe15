package subscription

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
)

type fakeCatalog map[int64]*domain.Content

func (f fakeCatalog) Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content {
	return f[id]
}

type fakeResolver map[int64]domain.Freshness

func (f fakeResolver) Resolve(ctx context.Context, seriesID int64) domain.Freshness {
	return f[seriesID]
}

func newRepo(t *testing.T) *store.SQLiteRepo {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func day(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := domain.ParseAirDate(s)
	require.NoError(t, err)
	return d
}

var catalog = fakeCatalog{
	10: {Kind: domain.KindSeries, ID: 10, Title: "Severance", PosterPath: "/sev.jpg"},
}

func TestSubscribeTwice(t *testing.T) {
	repo := newRepo(t)
	e := NewEngine(repo, catalog, fakeResolver{}, nil)
	ctx := context.Background()

	created, err := e.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, created)

	created, err = e.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	require.False(t, created)

	subs, err := e.Subscriptions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	all, err := repo.ListSubscribedSeries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSubscribeUnknownSeries(t *testing.T) {
	e := NewEngine(newRepo(t), catalog, fakeResolver{}, nil)

	_, err := e.Subscribe(context.Background(), 1, 999)
	require.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestUnsubscribeNeverSubscribed(t *testing.T) {
	e := NewEngine(newRepo(t), catalog, fakeResolver{}, nil)

	removed, err := e.Unsubscribe(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestToggleNotifications(t *testing.T) {
	repo := newRepo(t)
	e := NewEngine(repo, catalog, fakeResolver{}, nil)
	ctx := context.Background()

	_, err := e.ToggleNotifications(ctx, 1)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.UpsertUser(ctx, domain.Profile{ID: 1})
	require.NoError(t, err)

	enabled, err := e.ToggleNotifications(ctx, 1)
	require.NoError(t, err)
	require.False(t, enabled)

	enabled, err = e.ToggleNotifications(ctx, 1)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestCheckSeriesUpdatesNotifiesEnabledSubscribersOnce(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	resolver := fakeResolver{10: {LastEpisodeDate: day(t, "2024-01-01")}}
	e := NewEngine(repo, catalog, resolver, nil)

	for _, uid := range []int64{1, 2, 3} {
		_, err := e.Subscribe(ctx, uid, 10)
		require.NoError(t, err)
	}
	_, err := e.ToggleNotifications(ctx, 3)
	require.NoError(t, err)

	// Seed the stored date at 2024-01-01.
	_, err = e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)
	seed, err := repo.ListUnsent(ctx, 0)
	require.NoError(t, err)
	for _, n := range seed {
		_, err := repo.MarkSent(ctx, n.ID)
		require.NoError(t, err)
	}

	resolver[10] = domain.Freshness{LastEpisodeDate: day(t, "2024-01-08"), NextEpisodeDate: day(t, "2024-01-15")}
	report, err := e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)
	require.Equal(t, CheckReport{Checked: 1, Updated: 1, Notifications: 2}, report)

	pending, err := repo.ListUnsent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	users := map[int64]bool{}
	for _, n := range pending {
		users[n.UserID] = true
		require.Contains(t, n.Message, "Severance")
		require.Contains(t, n.Message, "08.01.2024")
	}
	require.Equal(t, map[int64]bool{1: true, 2: true}, users)

	subs, err := repo.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2024-01-08", subs[0].LastEpisodeDate.Format(domain.DateLayout))

	// Idempotent: nothing changed upstream.
	report, err = e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)
	require.Equal(t, CheckReport{Checked: 1}, report)

	pending, err = repo.ListUnsent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestCheckSeriesUpdatesEmptyFreshnessKeepsDates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	resolver := fakeResolver{10: {LastEpisodeDate: day(t, "2024-02-01"), NextEpisodeDate: day(t, "2024-02-08")}}
	now := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	e := NewEngine(repo, catalog, resolver, nil, WithClock(func() time.Time { return now }))

	_, err := e.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	_, err = e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)

	delete(resolver, 10)
	now = now.Add(24 * time.Hour)
	report, err := e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)
	require.Equal(t, CheckReport{Checked: 1}, report)

	subs, err := repo.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2024-02-01", subs[0].LastEpisodeDate.Format(domain.DateLayout))
	require.Equal(t, "2024-02-08", subs[0].NextEpisodeDate.Format(domain.DateLayout))
	require.Equal(t, now, *subs[0].LastCheck)
}

func TestCheckSeriesUpdatesRefreshesNextDate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	resolver := fakeResolver{10: {LastEpisodeDate: day(t, "2024-02-01")}}
	e := NewEngine(repo, catalog, resolver, nil)

	_, err := e.Subscribe(ctx, 1, 10)
	require.NoError(t, err)
	_, err = e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)

	resolver[10] = domain.Freshness{LastEpisodeDate: day(t, "2024-02-01"), NextEpisodeDate: day(t, "2024-03-01")}
	report, err := e.CheckSeriesUpdates(ctx)
	require.NoError(t, err)
	require.Zero(t, report.Updated)

	subs, err := repo.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", subs[0].NextEpisodeDate.Format(domain.DateLayout))
}

func TestCheckSeriesUpdatesCancelled(t *testing.T) {
	repo := newRepo(t)
	e := NewEngine(repo, catalog, fakeResolver{}, nil)
	_, err := e.Subscribe(context.Background(), 1, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.CheckSeriesUpdates(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
