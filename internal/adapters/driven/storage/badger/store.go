// Package badger provides a BadgerDB-backed entity driver.
//
// Entities are stored as JSON under e/<type>/<uuid>. A second key
// o/<type>/<owner>/<uuid> with an empty value indexes them by owner so
// that "by object" queries are prefix scans.
package badger

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Config configures a Store.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// GCInterval is how often value-log GC runs. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64
}

// DefaultConfig returns production defaults for a database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for a throwaway database.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	log *logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(format, args...)
}

// Infof is demoted to debug: badger reports every compaction at info.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(format, args...)
}

// Store owns the badger database shared by every typed Driver.
type Store struct {
	id     string
	db     *badger.DB
	path   string
	closed atomic.Bool
	log    *logger.Logger

	stopGC chan struct{}
	gcDone chan struct{}
}

var _ driven.Driver = (*Store)(nil)

// Open opens the database described by cfg.
func Open(id string, cfg Config, log *logger.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	log = log.Named("badger")
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	s := &Store{id: id, db: db, path: cfg.Path, log: log}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
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
		return "badger database is closed"
	}
	return "ready"
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.gcDone
	}
	return s.db.Close()
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Warn("value log GC: %v", err)
			}
		}
	}
}
