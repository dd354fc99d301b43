package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/trakhound/trakhound-core/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "entities.db"

// maxParams bounds the keys bound into one IN (...) clause.
const maxParams = 500

// Store owns the database connection shared by every typed Driver.
type Store struct {
	id     string
	db     *sql.DB
	path   string
	closed atomic.Bool
	log    *logger.Logger
}

var _ driven.Driver = (*Store)(nil)

// NewStore opens (creating if needed) the entity database in dataDir.
// If dataDir is empty, defaults to ~/.trakhound/data.
func NewStore(id, dataDir string, log *logger.Logger) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".trakhound", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		id:   id,
		db:   db,
		path: dbPath,
		log:  log.Named("sqlite"),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.log.Debug("opened %s", dbPath)
	return s, nil
}

// ID returns the driver identifier.
func (s *Store) ID() string {
	return s.id
}

// IsAvailable reports whether the database is open.
func (s *Store) IsAvailable() bool {
	return !s.closed.Load()
}

// AvailabilityMessage explains the availability state.
func (s *Store) AvailabilityMessage() string {
	if s.closed.Load() {
		return fmt.Sprintf("sqlite database %s is closed", s.path)
	}
	return "ready"
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
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

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_entities.up.sql" -> 1)
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

		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		s.log.Info("applied migration %s", name)
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// chunks splits keys into slices of at most maxParams.
func chunks(keys []string) [][]string {
	var out [][]string
	for len(keys) > maxParams {
		out = append(out, keys[:maxParams])
		keys = keys[maxParams:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

// queryContext runs a query with the entity type and keys bound, in
// chunks, calling scan for every row.
func (s *Store) queryContext(ctx context.Context, query string, entityType string, keys []string, scan func(*sql.Rows) error) error {
	for _, chunk := range chunks(keys) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, entityType)
		for _, k := range chunk {
			args = append(args, k)
		}
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(chunk))), args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			if err := scan(rows); err != nil {
				rows.Close()
				return err
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
