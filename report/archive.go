package report

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an archived report does not exist.
var ErrNotFound = errors.New("report not found")

// ErrChainBroken is returned by Verify when a stored hash does not match.
var ErrChainBroken = errors.New("report archive hash chain broken")

const archiveSchema = `
CREATE TABLE IF NOT EXISTS reports (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	generated_at   INTEGER NOT NULL,
	documents      INTEGER NOT NULL,
	failed         INTEGER NOT NULL,
	recommendation TEXT NOT NULL DEFAULT '',
	actor          TEXT NOT NULL,
	body           TEXT NOT NULL,
	prev_hash      TEXT NOT NULL,
	hash           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_generated ON reports(generated_at);
`

// ChainHash links an archive entry to its predecessor.
func ChainHash(prev, actor, action, object string) string {
	sum := sha256.Sum256([]byte(prev + "|" + actor + "|" + action + "|" + object))
	return hex.EncodeToString(sum[:])
}

// ArchiveConfig configures a SQLiteSink.
type ArchiveConfig struct {
	// Actor is recorded with every entry. Default: "filingscan".
	Actor string

	// BusyTimeout for the SQLite connection. Default: 10s.
	BusyTimeout time.Duration

	Logger *slog.Logger
}

func (c *ArchiveConfig) defaults() {
	if c.Actor == "" {
		c.Actor = "filingscan"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SQLiteSink archives every exported report in a SQLite database with a
// sha256 hash chain over (previous hash, actor, action, report ID). It is a
// history of exports, not pipeline state.
type SQLiteSink struct {
	db     *sql.DB
	cfg    ArchiveConfig
	logger *slog.Logger
}

// OpenArchive opens or creates the archive at path. Use ":memory:" in tests.
func OpenArchive(path string, cfg ArchiveConfig) (*SQLiteSink, error) {
	cfg.defaults()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("archive: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: schema: %w", err)
	}
	return &SQLiteSink{db: db, cfg: cfg, logger: cfg.Logger}, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Write appends r to the archive.
func (s *SQLiteSink) Write(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}
	rec := ""
	if r.Preliminary != nil {
		rec = string(r.Preliminary.Recommendation)
	}

	var hash string
	err = runTx(ctx, s.db, func(tx *sql.Tx) error {
		prev, err := lastHash(ctx, tx)
		if err != nil {
			return err
		}
		hash = ChainHash(prev, s.cfg.Actor, "export", r.ID)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reports (id, generated_at, documents, failed, recommendation, actor, body, prev_hash, hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.GeneratedAt.UnixMilli(), len(r.Documents), r.Status.Failed, rec,
			s.cfg.Actor, string(body), prev, hash)
		return err
	})
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", r.ID, err)
	}
	s.logger.Info("report: archived", "id", r.ID, "hash", hash[:12])
	return nil
}

func lastHash(ctx context.Context, tx *sql.Tx) (string, error) {
	var h string
	err := tx.QueryRowContext(ctx, `SELECT hash FROM reports ORDER BY seq DESC LIMIT 1`).Scan(&h)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return h, err
}

// Entry is an archive index row.
type Entry struct {
	ID             string    `json:"id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Documents      int       `json:"documents"`
	Failed         int       `json:"failed"`
	Recommendation string    `json:"recommendation,omitempty"`
	Actor          string    `json:"actor"`
	Hash           string    `json:"hash"`
}

// List returns the newest entries first. limit <= 0 means 50.
func (s *SQLiteSink) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generated_at, documents, failed, recommendation, actor, hash
		FROM reports ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &ms, &e.Documents, &e.Failed, &e.Recommendation, &e.Actor, &e.Hash); err != nil {
			return nil, fmt.Errorf("archive: scan: %w", err)
		}
		e.GeneratedAt = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get loads one archived report.
func (s *SQLiteSink) Get(ctx context.Context, id string) (*Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", id, err)
	}
	var r Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("archive: decode %s: %w", id, err)
	}
	return &r, nil
}

// Verify recomputes the hash chain from the first entry.
func (s *SQLiteSink) Verify(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, actor, prev_hash, hash FROM reports ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("archive: verify: %w", err)
	}
	defer rows.Close()

	prev := ""
	for rows.Next() {
		var id, actor, storedPrev, hash string
		if err := rows.Scan(&id, &actor, &storedPrev, &hash); err != nil {
			return fmt.Errorf("archive: verify scan: %w", err)
		}
		if storedPrev != prev || ChainHash(prev, actor, "export", id) != hash {
			return fmt.Errorf("%w at %s", ErrChainBroken, id)
		}
		prev = hash
	}
	return rows.Err()
}

const maxTxAttempts = 3

// runTx runs fn in a transaction, retrying when SQLite reports the database
// as busy.
func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if err = txOnce(ctx, db, fn); err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return err
}

func txOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
