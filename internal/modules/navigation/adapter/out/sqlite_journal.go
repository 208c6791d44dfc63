package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/modules/navigation/domain"
	navout "storefront/internal/modules/navigation/port/out"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type SQLiteSessionJournal struct {
	db *sql.DB
}

var _ navout.SessionJournal = (*SQLiteSessionJournal)(nil)

func NewSQLiteSessionJournal(dbPath string) (*SQLiteSessionJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	journal := &SQLiteSessionJournal{db: db}
	if err := journal.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (s *SQLiteSessionJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS navigation_sessions (
  id TEXT PRIMARY KEY,
  target TEXT NOT NULL,
  from_location TEXT NOT NULL,
  location TEXT NOT NULL,
  outcome TEXT NOT NULL,
  error TEXT,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS navigation_sessions_started_at ON navigation_sessions(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create navigation_sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteSessionJournal) Append(ctx context.Context, session domain.Session) error {
	const stmt = `
INSERT INTO navigation_sessions (id, target, from_location, location, outcome, error, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  location=excluded.location,
  outcome=excluded.outcome,
  error=excluded.error,
  ended_at=excluded.ended_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		session.ID,
		session.Target,
		session.From,
		session.Location,
		string(session.Outcome),
		session.Error,
		session.StartedAt.UTC().Format(timeLayout),
		session.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append navigation session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionJournal) Recent(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, target, from_location, location, outcome, COALESCE(error, ''), started_at, ended_at
FROM navigation_sessions
ORDER BY started_at DESC, id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query navigation sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var (
			session            domain.Session
			outcome            string
			startedAt, endedAt string
		)
		if err := rows.Scan(&session.ID, &session.Target, &session.From, &session.Location, &outcome, &session.Error, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan navigation session: %w", err)
		}
		session.Outcome = domain.Outcome(outcome)
		if session.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if session.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate navigation sessions: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteSessionJournal) Close() error {
	return s.db.Close()
}
