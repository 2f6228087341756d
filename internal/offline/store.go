// Package offline is the device-local substitute for the backend. The remote client writes
// here only when a call fails and reads from here as a degraded response.
//
// Records are JSON values under deterministic namespace keys, one row per
// (entity, user, qualifier). Storage failures never surface: writes are dropped and
// reads behave as if the store were empty.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/five82/trainlog/internal/logging"
)

// Prefix namespaces every fallback record.
const Prefix = "offline_api_v1"

// Key builds the namespace key for an entity of a user, with optional qualifiers
// (for example a day and a note kind).
func Key(userID, entity string, qualifiers ...string) string {
	parts := make([]string, 0, 3+len(qualifiers))
	parts = append(parts, Prefix, userID, entity)
	parts = append(parts, qualifiers...)
	return strings.Join(parts, ":")
}

// UserPrefix returns the key prefix shared by every record of a user.
func UserPrefix(userID string) string {
	return Prefix + ":" + userID + ":"
}

// Store is a SQLite-backed key/value store. A Store without a database (see Unavailable)
// is valid and behaves as permanently empty.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Open opens or creates the fallback database at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create offline dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("open offline db: %w", err)
	}

	s := &Store{db: db, logger: logging.OrDiscard(logger), now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate offline db: %w", err)
	}
	return s, nil
}

// Unavailable returns a store with no backing storage.
func Unavailable(logger *log.Logger) *Store {
	return &Store{logger: logging.OrDiscard(logger), now: time.Now}
}

// Available reports whether the store has working storage behind it.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS fallback (
		namespace_key TEXT PRIMARY KEY,
		json_value    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);`)
	return err
}

// Read decodes the record stored under key into dest and reports whether it did.
// dest should hold the caller's default; it is left untouched when the record is
// missing, unreadable or the storage is unavailable.
func (s *Store) Read(ctx context.Context, key string, dest any) bool {
	raw, ok := s.ReadRaw(ctx, key)
	if !ok {
		return false
	}
	if string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Debug("offline record undecodable", "key", key, "err", err)
		return false
	}
	return true
}

// ReadRaw returns the JSON text stored under key.
func (s *Store) ReadRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	if !s.Available() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT json_value FROM fallback WHERE namespace_key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("offline read failed", "key", key, "err", err)
		}
		return nil, false
	}
	if !json.Valid([]byte(value)) {
		return nil, false
	}
	return json.RawMessage(value), true
}

// Write stores value as JSON under key, replacing any previous record. It is best-effort:
// failures are logged and dropped. The return value reports whether the write landed.
func (s *Store) Write(ctx context.Context, key string, value any) bool {
	if !s.Available() {
		s.logger.Debug("offline storage unavailable, dropping write", "key", key)
		return false
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Debug("offline encode failed", "key", key, "err", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fallback (namespace_key, json_value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace_key) DO UPDATE SET json_value = excluded.json_value, updated_at = excluded.updated_at`,
		key, string(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Debug("offline write failed", "key", key, "err", err)
		return false
	}
	return true
}

// Scan returns every record whose key starts with prefix, keyed by the remainder of the key.
func (s *Store) Scan(ctx context.Context, prefix string) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if !s.Available() {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// substr counts characters, not bytes.
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace_key, json_value FROM fallback
		 WHERE substr(namespace_key, 1, ?) = ? ORDER BY namespace_key`,
		utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		s.logger.Debug("offline scan failed", "prefix", prefix, "err", err)
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			s.logger.Debug("offline scan row failed", "err", err)
			continue
		}
		if !json.Valid([]byte(value)) {
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = json.RawMessage(value)
	}
	return out
}

// Close releases the database.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.db.Close()
}
