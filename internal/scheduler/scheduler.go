package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/dispatcher"
	"github.com/ihovsky/MovieTrackerBot/internal/metrics"
	"github.com/ihovsky/MovieTrackerBot/internal/subscription"
)

const (
	stepCheck    = "check"
	stepDispatch = "dispatch"
)

// Checker detects new episodes. subscription.Engine implements it.
type Checker interface {
	CheckSeriesUpdates(ctx context.Context) (subscription.CheckReport, error)
}

// Sender drains the outbox. dispatcher.Dispatcher implements it.
type Sender interface {
	SendPending(ctx context.Context) (dispatcher.DispatchReport, error)
}

// Scheduler runs check-then-send cycles, sleeping a fixed interval between
// them. Cycles never overlap.
type Scheduler struct {
	checker  Checker
	sender   Sender
	interval time.Duration
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// New creates a new Scheduler.
func New(checker Checker, sender Sender, interval time.Duration, m *metrics.Metrics, log *zap.Logger) *Scheduler {
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		checker:  checker,
		sender:   sender,
		interval: interval,
		metrics:  m,
		log:      log,
	}
}

// Run starts the loop until ctx is canceled. The first cycle runs at once.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		s.RunOnce(ctx)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopping")
			return
		case <-timer.C:
		}
	}
}

// RunOnce performs one cycle. A failing step is logged and does not stop the
// other one.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log := s.log.With(zap.String("cycle_id", uuid.NewString()))
	start := time.Now()
	defer func() { s.metrics.CycleDuration.Observe(time.Since(start).Seconds()) }()

	if ctx.Err() != nil {
		return
	}

	err := s.step(ctx, log, stepCheck, func(ctx context.Context) error {
		r, err := s.checker.CheckSeriesUpdates(ctx)
		log.Info("series checked",
			zap.Int("checked", r.Checked),
			zap.Int("updated", r.Updated),
			zap.Int("notifications", r.Notifications),
			zap.Int("failed", r.Failed),
		)
		return err
	})
	if err != nil && ctx.Err() != nil {
		return
	}

	_ = s.step(ctx, log, stepDispatch, func(ctx context.Context) error {
		r, err := s.sender.SendPending(ctx)
		log.Info("notifications dispatched", zap.Int("sent", r.Sent), zap.Int("failed", r.Failed))
		return err
	})
}

func (s *Scheduler) step(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			s.metrics.CycleFailures.WithLabelValues(name).Inc()
			log.Error("cycle step failed", zap.String("step", name), zap.Error(err))
		}
	}()
	return fn(ctx)
}
