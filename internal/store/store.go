// Package store persists extracted outlines in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/store/migrations"
)

// timeFormat is fixed-width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when no outline matches the lookup.
var ErrNotFound = errors.New("outline not found")

// Record is one stored outline and its provenance.
type Record struct {
	DocID        string           `json:"doc_id"`
	Filename     string           `json:"filename"`
	ContentHash  string           `json:"content_hash"`
	PageCount    int              `json:"page_count"`
	HeadingCount int              `json:"heading_count"`
	CreatedAt    time.Time        `json:"created_at"`
	Outline      *outline.Outline `json:"outline"`
}

// Summary is a Record without the outline body, for listings.
type Summary struct {
	DocID        string    `json:"doc_id"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash"`
	PageCount    int       `json:"page_count"`
	HeadingCount int       `json:"heading_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a SQLite-backed outline store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens outlines.db in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "outlines.db")

	// WAL mode lets readers proceed while a worker writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// Put stores rec, replacing any outline with the same DocID.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.DocID == "" {
		return errors.New("doc_id is required")
	}
	if rec.Outline == nil {
		return errors.New("outline is required")
	}
	body, err := json.Marshal(rec.Outline)
	if err != nil {
		return fmt.Errorf("marshalling outline: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outlines (doc_id, filename, title, content_hash, outline_json, heading_count, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			title = excluded.title,
			content_hash = excluded.content_hash,
			outline_json = excluded.outline_json,
			heading_count = excluded.heading_count,
			page_count = excluded.page_count,
			created_at = excluded.created_at
	`, rec.DocID, rec.Filename, rec.Outline.Title, rec.ContentHash, string(body),
		len(rec.Outline.Outline), rec.PageCount, rec.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("saving outline: %w", err)
	}
	return nil
}

// Get returns the outline stored under docID.
func (s *Store) Get(ctx context.Context, docID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, filename, content_hash, outline_json, heading_count, page_count, created_at
		FROM outlines WHERE doc_id = ?
	`, docID)
	return scanRecord(row)
}

// GetByHash returns the most recent outline extracted from content with the
// given hash.
func (s *Store) GetByHash(ctx context.Context, contentHash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, filename, content_hash, outline_json, heading_count, page_count, created_at
		FROM outlines WHERE content_hash = ?
		ORDER BY created_at DESC LIMIT 1
	`, contentHash)
	return scanRecord(row)
}

// List returns stored outlines, newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, filename, title, content_hash, heading_count, page_count, created_at
		FROM outlines ORDER BY created_at DESC, doc_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outlines: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var created string
		if err := rows.Scan(&sum.DocID, &sum.Filename, &sum.Title, &sum.ContentHash,
			&sum.HeadingCount, &sum.PageCount, &created); err != nil {
			return nil, fmt.Errorf("scanning outline: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(timeFormat, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the outline stored under docID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM outlines WHERE doc_id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting outline: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting outline: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	var body, created string
	err := row.Scan(&rec.DocID, &rec.Filename, &rec.ContentHash, &body,
		&rec.HeadingCount, &rec.PageCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning outline: %w", err)
	}
	rec.Outline = &outline.Outline{}
	if err := json.Unmarshal([]byte(body), rec.Outline); err != nil {
		return nil, fmt.Errorf("unmarshalling outline: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeFormat, created)
	return &rec, nil
}
