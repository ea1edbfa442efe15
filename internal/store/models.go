package store

import (
	"database/sql"
	"time"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

// Calendar dates are stored as YYYY-MM-DD text so that string comparison in
// SQL matches date order.
func toNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: domain.DateOf(*t).Format(domain.DateLayout), Valid: true}
}

func fromNullDate(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	d, err := domain.ParseAirDate(ns.String)
	if err != nil {
		return nil
	}
	return d
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `user_id, username, first_name, last_name,
	notifications_enabled, created_at, last_active`

func scanUser(s scanner) (*domain.User, error) {
	var (
		u          domain.User
		username   sql.NullString
		firstName  sql.NullString
		lastName   sql.NullString
		enabledInt int
		createdAt  int64
		lastActive int64
	)
	if err := s.Scan(&u.ID, &username, &firstName, &lastName,
		&enabledInt, &createdAt, &lastActive); err != nil {
		return nil, err
	}
	u.Username = fromNullString(username)
	u.FirstName = fromNullString(firstName)
	u.LastName = fromNullString(lastName)
	u.NotificationsEnabled = enabledInt != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.LastActive = time.Unix(lastActive, 0).UTC()
	return &u, nil
}

const seriesColumns = `s.series_id, s.title, s.original_title, s.poster_path,
	s.last_episode_date, s.next_episode_date, s.last_check`

func scanSeries(sc scanner) (domain.Series, error) {
	var (
		s          domain.Series
		origTitle  sql.NullString
		posterPath sql.NullString
		lastEp     sql.NullString
		nextEp     sql.NullString
		lastCheck  sql.NullInt64
	)
	if err := sc.Scan(&s.ID, &s.Title, &origTitle, &posterPath,
		&lastEp, &nextEp, &lastCheck); err != nil {
		return domain.Series{}, err
	}
	s.OriginalTitle = fromNullString(origTitle)
	s.PosterPath = fromNullString(posterPath)
	s.LastEpisodeDate = fromNullDate(lastEp)
	s.NextEpisodeDate = fromNullDate(nextEp)
	s.LastCheck = fromNullInt64(lastCheck)
	return s, nil
}

const notificationColumns = `id, user_id, content_id, content_type, message, created_at, sent`

func scanNotification(sc scanner) (domain.Notification, error) {
	var (
		n         domain.Notification
		kind      string
		createdAt int64
		sentInt   int
	)
	if err := sc.Scan(&n.ID, &n.UserID, &n.ContentID, &kind, &n.Message, &createdAt, &sentInt); err != nil {
		return domain.Notification{}, err
	}
	n.ContentKind = domain.ContentKind(kind)
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.Sent = sentInt != 0
	return n, nil
}
