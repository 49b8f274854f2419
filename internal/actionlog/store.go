// Package actionlog is the durable append-only record of every dispatched
// action and its outcome. It is the single source of truth for quota
// accounting and for the reporting views.
package actionlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"linkbot/internal/action"
	"linkbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means sqlite default
}

type Store struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the store, creating the database file and schema if
// absent. Opening an existing database is a no-op for the schema.
func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("actionlog: path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers, and the
	// scheduler loop is the only writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts one record and commits before returning. Records with an
// empty date are stamped with today.
func (s *Store) Append(ctx context.Context, r action.Record) error {
	if !r.Type.Valid() {
		return fmt.Errorf("actionlog: invalid action type %q", r.Type)
	}
	if r.Date == "" {
		r.Date = action.Day(time.Now())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions(date, type, success) VALUES(?,?,?)`,
		r.Date, string(r.Type), boolInt(r.Succeeded),
	)
	return err
}

// CountForDate counts records of a type for one calendar day, any outcome.
func (s *Store) CountForDate(ctx context.Context, date string, typ action.Type) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM actions WHERE date = ? AND type = ?`,
		date, string(typ),
	).Scan(&n)
	return n, err
}

// StartRun records the beginning of a daemon run and returns its row id.
func (s *Store) StartRun(ctx context.Context, runID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, started_at) VALUES(?,?)`,
		runID, at.Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// EndRun stamps the end of a previously started run.
func (s *Store) EndRun(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ? WHERE id = ?`,
		at.Format(time.RFC3339), id,
	)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
