// Package sqlite provides a persistent ItemCache backed by SQLite.
// Result sets survive process restarts, so repeated queries within the
// staleness window never touch upstream APIs.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/crosswire-labs/intelstream/internal/adapters/driven/cache/sqlite/migrations"
	"github.com/crosswire-labs/intelstream/internal/core/domain"
	"github.com/crosswire-labs/intelstream/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ItemCache = (*Store)(nil)

// Store is a SQLite-backed ItemCache.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite cache at the specified data directory.
// If dataDir is empty, defaults to ~/.intelstream/data/cache.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".intelstream", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
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

// Get returns the fresh items stored under key. Expired rows count as a
// miss and are evicted opportunistically.
func (s *Store) Get(ctx context.Context, key string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM cached_items
		WHERE cache_key = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY position
	`, key, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		var item domain.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decoding cached item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache rows: %w", err)
	}

	if len(items) == 0 {
		// Drop whatever expired rows remain under the key.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cached_items WHERE cache_key = ?`, key)
		return nil, domain.ErrCacheMiss
	}

	return items, nil
}

// Put stores items under key with the given time-to-live, replacing any
// prior entry atomically.
func (s *Store) Put(ctx context.Context, key string, items []domain.Item, ttl time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM cached_items WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("clearing prior entry: %w", err)
	}

	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl)
	}

	for i, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding item %s: %w", item.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cached_items (cache_key, position, payload, expires_at)
			VALUES (?, ?, ?, ?)
		`, key, i, string(payload), expiresAt); err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Prune deletes every expired row. Callers may run it periodically; Get
// already treats expired rows as misses, so pruning only reclaims space.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cached_items WHERE expires_at IS NOT NULL AND expires_at <= ?
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_create_cached_items.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
