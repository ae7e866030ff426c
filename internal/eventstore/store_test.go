package eventstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.EventStoreConfig{RetentionMode: "ephemeral"}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	// Ephemeral mode swallows writes without error.
	if err := es.BeginTrigger(context.Background(), "t-1", "redemption", "alice"); err != nil {
		t.Fatalf("begin trigger: %v", err)
	}
	outcomes, err := es.ListOutcomes(context.Background(), "t-1", 10)
	if err != nil || outcomes != nil {
		t.Fatalf("expected nothing recorded, got %v %v", outcomes, err)
	}
}

func TestAppendAndQuery(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.EventStoreConfig{Path: filepath.Join(tmp, "events.db"), RetentionMode: "session"}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	triggerID := "trigger-123"
	if err := es.BeginTrigger(context.Background(), triggerID, "redemption", "alice"); err != nil {
		t.Fatalf("begin trigger: %v", err)
	}
	if err := es.AppendOutcome(context.Background(), triggerID, "moderation", "approved"); err != nil {
		t.Fatalf("append outcome: %v", err)
	}
	if err := es.AppendOutcome(context.Background(), triggerID, "completed", ""); err != nil {
		t.Fatalf("append outcome: %v", err)
	}

	outcomes, err := es.ListOutcomes(context.Background(), triggerID, 10)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Stage != "moderation" || outcomes[0].Detail != "approved" {
		t.Fatalf("unexpected first outcome %+v", outcomes[0])
	}
	if outcomes[1].Stage != "completed" {
		t.Fatalf("unexpected second outcome %+v", outcomes[1])
	}
}

func TestPruneByDaysAndTriggers(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.EventStoreConfig{
		Path:          filepath.Join(tmp, "events.db"),
		RetentionMode: "persistent",
		RetentionDays: 1,
		MaxTriggers:   1,
	}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })

	es.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := es.BeginTrigger(context.Background(), "old", "redemption", "a"); err != nil {
		t.Fatalf("begin trigger: %v", err)
	}
	if err := es.AppendOutcome(context.Background(), "old", "completed", ""); err != nil {
		t.Fatalf("append outcome: %v", err)
	}

	es.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := es.BeginTrigger(context.Background(), "new", "redemption", "b"); err != nil {
		t.Fatalf("begin trigger: %v", err)
	}
	if err := es.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	outcomes, err := es.ListOutcomes(context.Background(), "old", 10)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected pruned outcomes, got %d", len(outcomes))
	}
}
