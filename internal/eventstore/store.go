package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voxcastlabs/voxcast-core/internal/config"
)

// Outcome is one recorded stage of a trigger's pipeline run.
type Outcome struct {
	ID        int64
	TriggerID string
	Stage     string
	Detail    string
	CreatedAt time.Time
}

// Store keeps a SQLite timeline of voice-response triggers and what became
// of them, for debugging silently dropped events.
type Store struct {
	db    *sql.DB
	cfg   config.EventStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the store according to config. Ephemeral mode records
// nothing and needs no database.
func Open(ctx context.Context, cfg config.EventStoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// Session retention keeps the journal for the current run only.
	if cfg.RetentionMode == "session" {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM triggers`); err != nil {
			log.Warn("event store reset failed", slog.String("error", err.Error()))
		}
	}

	if cfg.VacuumOnStart {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("event store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("event store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS triggers (
    trigger_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    user TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trigger_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(trigger_id) REFERENCES triggers(trigger_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_outcomes_trigger_created ON outcomes(trigger_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginTrigger records that a trigger entered the pipeline.
func (s *Store) BeginTrigger(ctx context.Context, triggerID, kind, user string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO triggers(trigger_id, kind, user, created_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(trigger_id) DO NOTHING`,
		triggerID, kind, user, s.clock().UTC())
	return err
}

// AppendOutcome records how a pipeline stage ended for a trigger.
func (s *Store) AppendOutcome(ctx context.Context, triggerID, stage, detail string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes(trigger_id, stage, detail, created_at) VALUES(?, ?, ?, ?)`,
		triggerID, stage, detail, s.clock().UTC())
	return err
}

// ListOutcomes retrieves up to limit outcomes for a trigger, oldest first.
func (s *Store) ListOutcomes(ctx context.Context, triggerID string, limit int) ([]Outcome, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trigger_id, stage, detail, created_at
		 FROM outcomes WHERE trigger_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, triggerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var created string
		if err := rows.Scan(&o.ID, &o.TriggerID, &o.Stage, &o.Detail, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			o.CreatedAt = ts
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Prune applies the configured retention.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM outcomes WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM triggers WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxTriggers > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM triggers WHERE trigger_id IN (
			SELECT trigger_id FROM triggers ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxTriggers)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
