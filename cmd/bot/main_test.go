package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/store"
)

func TestRenderPending(t *testing.T) {
	out := renderPending([]domain.Notification{{
		ID:          3,
		UserID:      42,
		ContentID:   10,
		ContentKind: domain.KindSeries,
		Message:     "first line\nsecond line",
		CreatedAt:   time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
	}})
	for _, want := range []string{"ID", "series", "2024-01-08 09:30", "first line"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "second line") {
		t.Fatalf("expected only the first message line:\n%s", out)
	}
}

func seedPending(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.UpsertUser(ctx, domain.Profile{ID: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.CreateNotification(ctx, 1, 10, domain.KindSeries, "hello"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = repo.Close()
}

func TestPendingCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")
	seedPending(t, dbPath)

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"pending", "--db", dbPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestPendingCommandReadsDBPathFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "from-dotenv.db")
	seedPending(t, dbPath)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH="+dbPath+"\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)
	// Registers a restore of the original value, then unsets so .env is consulted.
	t.Setenv("DB_PATH", "")
	if err := os.Unsetenv("DB_PATH"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"pending"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected the .env database to be listed:\n%s", buf.String())
	}
}
