package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Apply PRAGMAs and run migrations.
	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, now: time.Now}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// withTx runs fn in a transaction, committing on success.
func (r *SQLiteRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpsertUser inserts the user on first contact or refreshes display fields and
// last_active. The notifications flag is never touched here.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, p domain.Profile) (*domain.User, error) {
	if p.ID == 0 {
		return nil, errors.New("user id required")
	}
	now := r.now().UTC().Unix()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (
			user_id, username, first_name, last_name,
			notifications_enabled, created_at, last_active
		) VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username    = excluded.username,
			first_name  = excluded.first_name,
			last_name   = excluded.last_name,
			last_active = excluded.last_active
		RETURNING `+userColumns,
		p.ID, nullIfEmpty(p.Username), nullIfEmpty(p.FirstName), nullIfEmpty(p.LastName),
		now, now,
	)
	return scanUser(row)
}

// GetUser returns a user by id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// ToggleNotifications flips the flag in a single statement and returns the new value.
func (r *SQLiteRepo) ToggleNotifications(ctx context.Context, userID int64) (bool, error) {
	var enabled int
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET notifications_enabled = 1 - notifications_enabled
		WHERE user_id = ?
		RETURNING notifications_enabled`,
		userID,
	).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return enabled != 0, nil
}

// Subscribe links the user to the series, creating the series row on first
// use. Uniqueness of (user_id, series_id) is enforced by the primary key, so
// concurrent calls for the same pair create at most one link.
func (r *SQLiteRepo) Subscribe(ctx context.Context, userID int64, s domain.Series) (bool, error) {
	if s.ID <= 0 {
		return false, errors.New("series id must be positive")
	}
	var created bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC().Unix()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, notifications_enabled, created_at, last_active)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(user_id) DO NOTHING`,
			userID, now, now,
		); err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO series (series_id, title, original_title, poster_path)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(series_id) DO NOTHING`,
			s.ID, s.Title, nullIfEmpty(s.OriginalTitle), nullIfEmpty(s.PosterPath),
		); err != nil {
			return fmt.Errorf("ensure series: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO user_series_subscriptions (user_id, series_id)
			VALUES (?, ?)
			ON CONFLICT(user_id, series_id) DO NOTHING`,
			userID, s.ID,
		)
		if err != nil {
			return fmt.Errorf("link: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		return nil
	})
	return created, err
}

// Unsubscribe removes the link and reports whether one existed.
// The series row is kept.
func (r *SQLiteRepo) Unsubscribe(ctx context.Context, userID, seriesID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_series_subscriptions
		WHERE user_id = ? AND series_id = ?`,
		userID, seriesID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IsSubscribed reports whether the link exists.
func (r *SQLiteRepo) IsSubscribed(ctx context.Context, userID, seriesID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_series_subscriptions
			WHERE user_id = ? AND series_id = ?
		)`,
		userID, seriesID,
	).Scan(&exists)
	return exists != 0, err
}

// ListSubscriptions returns the user's series ordered by title.
func (r *SQLiteRepo) ListSubscriptions(ctx context.Context, userID int64) ([]domain.Series, error) {
	return r.querySeries(ctx, `
		SELECT `+seriesColumns+`
		FROM series s
		JOIN user_series_subscriptions us ON us.series_id = s.series_id
		WHERE us.user_id = ?
		ORDER BY s.title COLLATE NOCASE, s.series_id`,
		userID,
	)
}

// ListSubscribedSeries returns every series with at least one subscriber.
func (r *SQLiteRepo) ListSubscribedSeries(ctx context.Context) ([]domain.Series, error) {
	return r.querySeries(ctx, `
		SELECT `+seriesColumns+`
		FROM series s
		WHERE EXISTS (
			SELECT 1 FROM user_series_subscriptions us WHERE us.series_id = s.series_id
		)
		ORDER BY s.series_id`)
}

func (r *SQLiteRepo) querySeries(ctx context.Context, query string, args ...any) ([]domain.Series, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// TouchSeries advances last_check only. last_check never moves backwards.
func (r *SQLiteRepo) TouchSeries(ctx context.Context, seriesID int64, checkedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE series
		SET last_check = MAX(COALESCE(last_check, 0), ?)
		WHERE series_id = ?`,
		checkedAt.UTC().Unix(), seriesID,
	)
	return err
}

// RefreshSeries stores the next expected air date and advances last_check.
func (r *SQLiteRepo) RefreshSeries(ctx context.Context, seriesID int64, next *time.Time, checkedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE series
		SET next_episode_date = ?,
		    last_check        = MAX(COALESCE(last_check, 0), ?)
		WHERE series_id = ?`,
		toNullDate(next), checkedAt.UTC().Unix(), seriesID,
	)
	return err
}

// RecordNewEpisode updates the series only if the new last-episode date is
// strictly later than the stored one and, in the same transaction, enqueues
// one notification per subscriber with notifications enabled. A repeated call
// with the same date is a no-op.
func (r *SQLiteRepo) RecordNewEpisode(ctx context.Context, ep NewEpisode) (bool, int, error) {
	var (
		applied bool
		created int
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		last := toNullDate(&ep.LastEpisodeDate)
		res, err := tx.ExecContext(ctx, `
			UPDATE series
			SET last_episode_date = ?,
			    next_episode_date = ?,
			    last_check        = MAX(COALESCE(last_check, 0), ?)
			WHERE series_id = ?
			  AND (last_episode_date IS NULL OR last_episode_date < ?)`,
			last, toNullDate(ep.NextEpisodeDate), ep.CheckedAt.UTC().Unix(),
			ep.SeriesID, last,
		)
		if err != nil {
			return fmt.Errorf("update series: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		applied = true

		res, err = tx.ExecContext(ctx, `
			INSERT INTO notifications (user_id, content_id, content_type, message, created_at, sent)
			SELECT us.user_id, ?, ?, ?, ?, 0
			FROM user_series_subscriptions us
			JOIN users u ON u.user_id = us.user_id
			WHERE us.series_id = ? AND u.notifications_enabled = 1
			ORDER BY us.user_id`,
			ep.SeriesID, string(domain.KindSeries), ep.Message, r.now().UTC().Unix(),
			ep.SeriesID,
		)
		if err != nil {
			return fmt.Errorf("enqueue notifications: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		created = int(n)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return applied, created, nil
}

// CreateNotification appends a single unsent notification to the outbox.
func (r *SQLiteRepo) CreateNotification(ctx context.Context, userID, contentID int64, kind domain.ContentKind, message string) (*domain.Notification, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid content kind %q", kind)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, content_id, content_type, message, created_at, sent)
		VALUES (?, ?, ?, ?, ?, 0)
		RETURNING `+notificationColumns,
		userID, contentID, string(kind), message, r.now().UTC().Unix(),
	)
	n, err := scanNotification(row)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListUnsent returns unsent notifications in creation order. A non-positive
// limit returns all of them.
func (r *SQLiteRepo) ListUnsent(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE sent = 0
		ORDER BY created_at ASC, id ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// CountUnsent returns the outbox backlog size.
func (r *SQLiteRepo) CountUnsent(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notifications WHERE sent = 0`).Scan(&n)
	return n, err
}

// MarkSent flags a notification as delivered. It reports whether the
// notification exists.
func (r *SQLiteRepo) MarkSent(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET sent = ?
		WHERE id = ?`,
		boolToInt(true), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
