package store

import (
	"context"
	"errors"
	"time"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users, series subscriptions and the
// notification outbox.
type Repo interface {
	// Users
	UpsertUser(ctx context.Context, p domain.Profile) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	ToggleNotifications(ctx context.Context, userID int64) (bool, error)

	// Subscriptions
	Subscribe(ctx context.Context, userID int64, s domain.Series) (bool, error)
	Unsubscribe(ctx context.Context, userID, seriesID int64) (bool, error)
	IsSubscribed(ctx context.Context, userID, seriesID int64) (bool, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]domain.Series, error)

	// Polling
	ListSubscribedSeries(ctx context.Context) ([]domain.Series, error)
	TouchSeries(ctx context.Context, seriesID int64, checkedAt time.Time) error
	RefreshSeries(ctx context.Context, seriesID int64, next *time.Time, checkedAt time.Time) error
	RecordNewEpisode(ctx context.Context, ep NewEpisode) (applied bool, created int, err error)

	// Outbox
	CreateNotification(ctx context.Context, userID, contentID int64, kind domain.ContentKind, message string) (*domain.Notification, error)
	ListUnsent(ctx context.Context, limit int) ([]domain.Notification, error)
	CountUnsent(ctx context.Context) (int, error)
	MarkSent(ctx context.Context, id int64) (bool, error)

	Close() error
}

// NewEpisode describes a freshness change to persist together with the
// notifications it owes.
type NewEpisode struct {
	SeriesID        int64
	LastEpisodeDate time.Time
	NextEpisodeDate *time.Time
	CheckedAt       time.Time
	Message         string
}
