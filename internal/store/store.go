// Package store persists cross-run state in a SQLite database: IMAP
// mailbox cursors and an index of snapshot runs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// Open opens (creating if needed) a SQLite database with WAL mode and
// foreign keys enabled, and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS mail_state (
    mailbox     TEXT PRIMARY KEY,
    last_uid    INTEGER NOT NULL DEFAULT 0,
    uidvalidity INTEGER NOT NULL DEFAULT 0,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    skill         TEXT NOT NULL,
    subject       TEXT NOT NULL,
    started_at    TEXT NOT NULL,
    finished_at   TEXT,
    status        TEXT NOT NULL DEFAULT 'running',
    snapshot_path TEXT,
    report_path   TEXT,
    error         TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_skill ON runs(skill, started_at);
`

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// MailCursor holds the fetch position for one mailbox.
type MailCursor struct {
	Mailbox     string
	LastUID     uint32
	UIDValidity uint32
	UpdatedAt   time.Time
}

// GetMailCursor returns the cursor for a mailbox, or nil when none is stored.
func (d *DB) GetMailCursor(mailbox string) (*MailCursor, error) {
	row := d.conn.QueryRow(
		"SELECT mailbox, last_uid, uidvalidity, updated_at FROM mail_state WHERE mailbox = ?",
		mailbox)

	var c MailCursor
	var updated string
	err := row.Scan(&c.Mailbox, &c.LastUID, &c.UIDValidity, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mail cursor for %s: %w", mailbox, err)
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &c, nil
}

// SetMailCursor upserts the cursor for a mailbox.
func (d *DB) SetMailCursor(mailbox string, lastUID, uidValidity uint32) error {
	_, err := d.conn.Exec(`
		INSERT INTO mail_state (mailbox, last_uid, uidvalidity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mailbox) DO UPDATE SET
			last_uid = excluded.last_uid,
			uidvalidity = excluded.uidvalidity,
			updated_at = excluded.updated_at`,
		mailbox, lastUID, uidValidity, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing mail cursor for %s: %w", mailbox, err)
	}
	return nil
}

// Run is one recorded skill invocation.
type Run struct {
	ID           string
	Skill        string
	Subject      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	SnapshotPath string
	ReportPath   string
	Error        string
}

// StartRun records a new run in the index.
func (d *DB) StartRun(id, skill, subject string) error {
	_, err := d.conn.Exec(
		"INSERT INTO runs (id, skill, subject, started_at, status) VALUES (?, ?, ?, ?, 'running')",
		id, skill, subject, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun marks a run completed or failed and records artifact paths.
func (d *DB) FinishRun(id, status, snapshotPath, reportPath, errMsg string) error {
	_, err := d.conn.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, snapshot_path = ?, report_path = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, snapshotPath, reportPath, errMsg, id)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs for a skill, most recent first.
// An empty skill matches all skills.
func (d *DB) RecentRuns(skill string, limit int) ([]Run, error) {
	query := "SELECT id, skill, subject, started_at, COALESCE(finished_at,''), status, COALESCE(snapshot_path,''), COALESCE(report_path,''), COALESCE(error,'') FROM runs"
	var args []any
	if skill != "" {
		query += " WHERE skill = ?"
		args = append(args, skill)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Skill, &r.Subject, &started, &finished, &r.Status, &r.SnapshotPath, &r.ReportPath, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
