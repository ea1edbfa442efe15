package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ihovsky/MovieTrackerBot/internal/config"
	"github.com/ihovsky/MovieTrackerBot/internal/telegram"
)

// longPollTimeout is the getUpdates timeout in seconds.
const longPollTimeout = 30

type App struct {
	cfg     config.Config
	log     *zap.Logger
	poller  *tgbotapi.BotAPI // long polling, default HTTP client
	sender  *tgbotapi.BotAPI // outgoing calls, bounded by SEND_TIMEOUT
	httpSrv *http.Server
	reg     *prometheus.Registry
}

// NewSender returns a bot client whose requests are bounded by the send
// timeout.
func NewSender(cfg config.Config) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: cfg.SendTimeout}
	return tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	poller, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	poller.Debug = false

	sender, err := NewSender(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return &App{cfg: cfg, log: log, poller: poller, sender: sender, httpSrv: srv, reg: reg}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting movie tracker bot",
		zap.String("bot", a.poller.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("interval", a.cfg.Interval()),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := NewCore(ctx, a.cfg, a.log, telegram.NewMessenger(a.sender), a.reg)
	if err != nil {
		a.log.Error("core init failed", zap.Error(err))
		return err
	}
	defer func() { _ = core.Close() }()

	router := telegram.NewRouter(a.sender, a.log.Named("telegram"), core.Catalog, core.Engine, core.Repo, core.Resolver,
		telegram.Options{
			SiteURL:     a.cfg.ContentSiteURL,
			SessionSize: a.cfg.SessionSize,
			SessionTTL:  a.cfg.SessionTTL,
			Metrics:     core.Metrics,
		})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")

		// Create a short-lived shutdown context and cancel it immediately after use.
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.httpSrv.Shutdown(shCtx)
		cancel()
		if err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		core.Scheduler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.receiveUpdates(gctx, router)
		return nil
	})

	return g.Wait()
}

// receiveUpdates handles updates concurrently, at most MaxConcurrentUpdates
// at a time, and waits for in-flight handlers on shutdown.
func (a *App) receiveUpdates(ctx context.Context, router *telegram.Router) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollTimeout
	updCh := a.poller.GetUpdatesChan(u)

	handlers := new(errgroup.Group)
	handlers.SetLimit(a.cfg.MaxConcurrentUpdates)
	defer func() {
		a.poller.StopReceivingUpdates()
		_ = handlers.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updCh:
			if !ok {
				return
			}
			handlers.Go(func() error {
				// A details screen makes up to three catalog calls and two sends.
				hctx, cancel := context.WithTimeout(ctx, 3*a.cfg.TMDBTimeout+2*a.cfg.SendTimeout)
				defer cancel()
				router.HandleUpdate(hctx, upd)
				return nil
			})
		}
	}
}
