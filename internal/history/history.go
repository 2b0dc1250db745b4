// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the record of previously selected articles so
// the same trial is not featured twice.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "history.db"

// Entry is one previously selected article.
type Entry struct {
	DOI        string
	PMID       string
	Title      string
	Journal    string
	Score      float64
	Rationale  string
	SelectedAt time.Time
}

// Store manages the selection history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dataDir/history.db,
// creating the schema if needed.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS selections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT,
			pmid TEXT,
			title TEXT,
			journal TEXT,
			score REAL,
			rationale TEXT,
			selected_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_doi ON selections(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_pmid ON selections(pmid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Add records a selection. Empty identifiers are stored as-is; Contains
// ignores them when matching.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.DOI == "" && e.PMID == "" {
		return fmt.Errorf("entry needs a DOI or PMID")
	}
	selectedAt := e.SelectedAt
	if selectedAt.IsZero() {
		selectedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selections (doi, pmid, title, journal, score, rationale, selected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.DOI, e.PMID, e.Title, e.Journal, e.Score, e.Rationale,
		selectedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}
	return nil
}

// Contains reports whether an article with the given DOI or PMID has been
// selected before. Empty identifiers never match.
func (s *Store) Contains(ctx context.Context, doi, pmid string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM selections
		 WHERE (doi = ?1 AND ?1 != '') OR (pmid = ?2 AND ?2 != '')`,
		doi, pmid,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying selection history: %w", err)
	}
	return count > 0, nil
}

// List returns all recorded selections, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doi, pmid, title, journal, score, rationale, selected_at
		 FROM selections ORDER BY selected_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing selection history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var selectedAt string
		if err := rows.Scan(&e.DOI, &e.PMID, &e.Title, &e.Journal, &e.Score, &e.Rationale, &selectedAt); err != nil {
			return nil, fmt.Errorf("scanning selection row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, selectedAt); err == nil {
			e.SelectedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading selection rows: %w", err)
	}
	return entries, nil
}

// Clear removes every recorded selection.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selections`); err != nil {
		return fmt.Errorf("clearing selection history: %w", err)
	}
	return nil
}
