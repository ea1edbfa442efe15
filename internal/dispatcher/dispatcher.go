// Package dispatcher drains the notification outbox through a messaging
// channel.
package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/metrics"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
)

// Messenger delivers messages to a user. A nil error means the platform
// accepted the message.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error
}

// Catalog resolves titles and posters for notification content.
type Catalog interface {
	Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content
	PosterURL(path string) string
}

// DispatchReport summarizes one SendPending pass.
type DispatchReport struct {
	Sent   int
	Failed int
}

// Dispatcher sends pending notifications in creation order.
type Dispatcher struct {
	repo        store.Repo
	catalog     Catalog
	messenger   Messenger
	metrics     *metrics.Metrics
	log         *zap.Logger
	sendTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics sets the collectors updated per pass.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

// New creates a dispatcher.
func New(repo store.Repo, catalog Catalog, messenger Messenger, log *zap.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		repo:        repo,
		catalog:     catalog,
		messenger:   messenger,
		log:         log,
		sendTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.New(nil)
	}
	return d
}

// SendPending delivers every unsent notification once. A notification is
// marked sent only after the messenger accepted it; failures are logged and
// left for the next pass. Only listing errors and cancellation are returned.
func (d *Dispatcher) SendPending(ctx context.Context) (DispatchReport, error) {
	var report DispatchReport

	pending, err := d.repo.ListUnsent(ctx, 0)
	if err != nil {
		return report, fmt.Errorf("list unsent: %w", err)
	}

	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := d.log.With(zap.Int64("notification_id", n.ID), zap.Int64("user_id", n.UserID))

		if err := d.deliver(ctx, n); err != nil {
			report.Failed++
			d.metrics.NotificationsFailed.Inc()
			log.Warn("delivery failed", zap.Error(err))
			continue
		}
		if _, err := d.repo.MarkSent(ctx, n.ID); err != nil {
			// Delivered but not marked: it will be sent again next pass.
			report.Failed++
			d.metrics.NotificationsFailed.Inc()
			log.Error("mark sent failed", zap.Error(err))
			continue
		}
		report.Sent++
		d.metrics.NotificationsSent.Inc()
		log.Debug("notification sent")
	}

	if count, err := d.repo.CountUnsent(ctx); err == nil {
		d.metrics.OutboxPending.Set(float64(count))
	}
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) error {
	title, poster := d.lookup(ctx, n)
	text := Compose(title, n.Message)

	if poster != "" {
		err := d.withTimeout(ctx, func(sendCtx context.Context) error {
			return d.messenger.SendPhoto(sendCtx, n.UserID, poster, text)
		})
		if err == nil {
			return nil
		}
		// Broken posters must not block the text.
		d.log.Debug("photo send failed, falling back to text",
			zap.Int64("notification_id", n.ID), zap.Error(err))
	}
	return d.withTimeout(ctx, func(sendCtx context.Context) error {
		return d.messenger.SendText(sendCtx, n.UserID, text)
	})
}

// withTimeout runs one send attempt under its own SEND_TIMEOUT budget.
func (d *Dispatcher) withTimeout(ctx context.Context, send func(context.Context) error) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return send(sendCtx)
}

// lookup resolves title and poster. Failures are not fatal: the stored
// message is delivered anyway.
func (d *Dispatcher) lookup(ctx context.Context, n domain.Notification) (string, string) {
	if d.catalog == nil || !n.ContentKind.Valid() {
		return "", ""
	}
	c := d.catalog.Details(ctx, n.ContentKind, n.ContentID)
	if c == nil {
		return "", ""
	}
	return c.Title, d.catalog.PosterURL(c.PosterPath)
}

// Compose prefixes the message with the title unless the message already
// names it.
func Compose(title, message string) string {
	title = strings.TrimSpace(title)
	if title == "" || strings.Contains(message, title) {
		return message
	}
	return title + "\n\n" + message
}
