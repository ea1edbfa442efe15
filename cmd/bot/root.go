package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/app"
	"github.com/ihovsky/MovieTrackerBot/internal/config"
	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/logger"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
	"github.com/ihovsky/MovieTrackerBot/internal/telegram"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "movietracker",
		Short:         "Telegram bot that tracks movies and new series episodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPollCommand())
	rootCmd.AddCommand(newPendingCommand())
	return rootCmd
}

// setup loads configuration and builds the logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config error: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger init error: %w", err)
	}
	return cfg, log, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the polling scheduler and the health/metrics server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	if err := application.Run(ctx); err != nil {
		log.Error("app run failed", zap.Error(err))
		return err
	}
	return nil
}

func newPollCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one check-and-dispatch cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sender, err := app.NewSender(cfg)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			core, err := app.NewCore(ctx, cfg, log, telegram.NewMessenger(sender), nil)
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			core.Scheduler.RunOnce(ctx)
			return ctx.Err()
		},
	}
}

func newPendingCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List unsent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				if err := config.LoadDotEnv(); err != nil {
					return err
				}
				dbPath = envOr("DB_PATH", "./data/tracker.db")
			}
			repo, err := store.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			items, err := repo.ListUnsent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending notifications.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPending(items))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default $DB_PATH from env or .env, else ./data/tracker.db)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show (0 = all)")
	return cmd
}

func renderPending(items []domain.Notification) string {
	rows := make([][]string, 0, len(items))
	for _, n := range items {
		rows = append(rows, []string{
			strconv.FormatInt(n.ID, 10),
			strconv.FormatInt(n.UserID, 10),
			string(n.ContentKind),
			strconv.FormatInt(n.ContentID, 10),
			n.CreatedAt.Format("2006-01-02 15:04"),
			firstLine(n.Message),
		})
	}
	return renderTable(
		[]string{"ID", "User", "Kind", "Content", "Created (UTC)", "Message"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
