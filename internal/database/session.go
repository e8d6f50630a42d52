package database

import (
	"log/slog"
	"sync"

	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/snapshot"
)

// Session holds the single live database for the process lifetime.
// Initialize is idempotent: the first successful call opens the database,
// later calls return the same handle. A failed open leaves the session
// empty so the call can be retried.
type Session struct {
	mu sync.Mutex
	db *Database
}

// Initialize opens the database on first call and is a no-op afterwards.
func (s *Session) Initialize(cfg *config.Config, store snapshot.Store, log *slog.Logger) (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := Open(cfg, store, log)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// Current returns the live database, or nil before Initialize succeeds.
func (s *Session) Current() *Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Clear drops the session's handle so a later Initialize opens fresh.
// Called after the database is closed.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = nil
}
