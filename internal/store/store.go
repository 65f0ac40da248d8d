// Package store holds the two run-to-run caches: the JSON threat cache
// and a SQLite summary cache keyed by content hash.
package store

import (
	"database/sql"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed summary cache. Caching summaries by content
// hash keeps repeated runs from re-hitting the remote summarizer.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the summary cache in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "threatbrief.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS summaries (
		content_hash TEXT PRIMARY KEY,
		summary_text TEXT,
		date_generated DATETIME
	);`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create summaries table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheSummary stores a summary keyed by its source-content hash.
func (s *Store) CacheSummary(content, summary string) error {
	query := `INSERT OR REPLACE INTO summaries (content_hash, summary_text, date_generated) VALUES (?, ?, ?)`
	_, err := s.db.Exec(query, ContentHash(content), summary, time.Now().UTC())
	return err
}

// GetCachedSummary returns the cached summary for content, or "" on a miss.
func (s *Store) GetCachedSummary(content string, maxAge time.Duration) (string, error) {
	query := `SELECT summary_text FROM summaries WHERE content_hash = ? AND date_generated > ?`
	cutoff := time.Now().UTC().Add(-maxAge)

	var summary string
	err := s.db.QueryRow(query, ContentHash(content), cutoff).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan summary: %w", err)
	}
	return summary, nil
}

// Stats reports cache contents for the CLI.
type Stats struct {
	SummaryCount int
	CacheSize    int64
	LastUpdated  time.Time
}

// GetStats returns statistics about the cache.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM summaries`).Scan(&stats.SummaryCount); err != nil {
		return nil, fmt.Errorf("failed to count summaries: %w", err)
	}
	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.CacheSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}
	return stats, nil
}

// Clear removes all cached summaries.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM summaries`); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

// CleanupOld removes summaries older than maxAge.
func (s *Store) CleanupOld(maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	if _, err := s.db.Exec(`DELETE FROM summaries WHERE date_generated < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to clean old summaries: %w", err)
	}
	return nil
}

// ContentHash produces a stable hash of content for cache validation.
func ContentHash(content string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return fmt.Sprintf("%x", h.Sum64())
}
