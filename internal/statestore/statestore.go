// ABOUTME: Durable key-value state store backed by SQLite using modernc.org/sqlite
// ABOUTME: In-memory cache is authoritative; persistence failures degrade to warnings

package statestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists small JSON-encoded values by key. Reads are served from an
// in-memory cache loaded at open time, so a storage failure never blocks the
// running session: writes that cannot reach disk are logged and the cached
// value keeps serving callers for the lifetime of the process.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	cache  map[string]string
	logger *slog.Logger
}

// Open creates or opens the state database at the given path. The schema is
// created if it doesn't exist and parent directories are created if needed.
// If the existing state cannot be read back, the store starts empty rather
// than failing: callers fall back to their defaults.
func Open(path string) (*Store, error) {
	logger := slog.Default().With("component", "statestore")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	// WAL keeps the synchronous write-per-change pattern cheap
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		cache:  make(map[string]string),
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.loadAll()

	logger.Info("state store opened", "path", path, "keys", len(s.cache))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// loadAll reads every persisted key into the cache. Read failures leave the
// affected keys at their defaults; they never surface to callers.
func (s *Store) loadAll() {
	rows, err := s.db.Query("SELECT key, value FROM kv_state")
	if err != nil {
		s.logger.Warn("reading persisted state failed, starting empty", "error", err)
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			s.logger.Warn("skipping unreadable state row", "error", err)
			continue
		}
		s.cache[key] = value
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("reading persisted state was cut short", "error", err)
	}
}

// raw returns the cached encoded value for key.
func (s *Store) raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.cache[key]
	return value, ok
}

// setRaw updates the cache and writes through to disk. The cache update
// always succeeds; a failed disk write is logged and the session continues
// non-durably.
func (s *Store) setRaw(key, value string) {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Warn("state updated but not persisted", "key", key, "error", err)
	}
}

// Remove clears the key from the cache and from disk. A subsequent Get
// returns the caller's default.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv_state WHERE key = ?", key); err != nil {
		s.logger.Warn("removing persisted state failed", "key", key, "error", err)
	}
}

// Get returns the value stored under key, or def when the key is missing or
// the stored value cannot be decoded. It never fails: decode problems are
// logged and the default is returned.
func Get[T any](s *Store, key string, def T) T {
	raw, ok := s.raw(key)
	if !ok {
		return def
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		s.logger.Warn("stored state is not decodable, using default", "key", key, "error", err)
		return def
	}
	return value
}

// Set stores value under key. Encoding failures are logged and leave the
// previous value in place.
func Set[T any](s *Store, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("state value is not encodable, not stored", "key", key, "error", err)
		return
	}
	s.setRaw(key, string(raw))
}
