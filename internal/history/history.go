// Package history keeps a revision history of every saved configuration
// document in a local SQLite database, so a bad edit can be rolled back.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/persist"
)

// Entry is one recorded revision. Content is only filled by Get.
type Entry struct {
	ID         int64       `json:"id"`
	Kind       config.Kind `json:"kind"`
	Path       string      `json:"path"`
	Generation string      `json:"generation"`
	Hash       string      `json:"hash"`
	Size       int         `json:"size"`
	SavedAt    time.Time   `json:"saved_at"`
	Content    []byte      `json:"-"`
}

// Store is the revision history database. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	keep   int
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKeep prunes each document's history to the newest n revisions after
// every record. Zero or less keeps everything.
func WithKeep(n int) Option {
	return func(s *Store) {
		s.keep = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	// WAL and a busy timeout let a running editor and the CLI share the file.
	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a saved revision. A revision whose content is identical to
// the newest recorded revision of the same document is skipped.
func (s *Store) Record(ctx context.Context, rev persist.Revision) error {
	hash := contentHash(rev.Content)

	var latest string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM revisions WHERE kind = ? ORDER BY id DESC LIMIT 1`,
		string(rev.Kind),
	).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query latest revision: %w", err)
	}
	if latest == hash {
		s.logger.Debug("revision unchanged, not recorded", "kind", rev.Kind, "generation", rev.Generation)
		return nil
	}

	savedAt := rev.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO revisions (kind, path, generation, hash, size, content, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(rev.Kind), rev.Path, rev.Generation, hash, len(rev.Content), rev.Content,
		savedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	s.logger.Debug("recorded revision", "kind", rev.Kind, "generation", rev.Generation)

	if s.keep > 0 {
		if _, err := s.Prune(ctx, rev.Kind, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// List returns the newest revisions of a document, newest first. An empty
// kind lists every document. A limit of zero or less means no limit.
func (s *Store) List(ctx context.Context, kind config.Kind, limit int) ([]Entry, error) {
	query := `SELECT id, kind, path, generation, hash, size, saved_at FROM revisions`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			k       string
			savedAt string
		)
		if err := rows.Scan(&e.ID, &k, &e.Path, &e.Generation, &e.Hash, &e.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		e.Kind = config.Kind(k)
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return entries, nil
}

// Get returns one revision including its content.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	var (
		e       Entry
		k       string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, path, generation, hash, size, content, saved_at
		FROM revisions WHERE id = ?`, id,
	).Scan(&e.ID, &k, &e.Path, &e.Generation, &e.Hash, &e.Size, &e.Content, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tcerrors.ErrRevisionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision %d: %w", id, err)
	}
	e.Kind = config.Kind(k)
	e.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return &e, nil
}

// Prune deletes all but the newest keep revisions of a document and
// returns how many were removed.
func (s *Store) Prune(ctx context.Context, kind config.Kind, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM revisions
		WHERE kind = ? AND id NOT IN (
			SELECT id FROM revisions WHERE kind = ? ORDER BY id DESC LIMIT ?
		)`,
		string(kind), string(kind), keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug("pruned revisions", "kind", kind, "removed", n)
	}
	return n, nil
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
