package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one cached value with the time it was captured.
// A zero Timestamp means the envelope carried no usable timestamp and
// the entry must be treated as stale.
type Entry struct {
	Timestamp time.Time
	Data      json.RawMessage
}

// Decode unmarshals the cached payload into v.
func (e *Entry) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Backend is the storage surface the data services cache through.
// The filesystem Store is the production implementation, tests substitute
// an in-memory one.
type Backend interface {
	Get(key string) (*Entry, bool)
	Put(key string, payload interface{}) error
	Delete(key string) error
	Keys() ([]string, error)
}

// envelope is the on-disk JSON shape. Timestamp is kept as a string so a
// corrupt value degrades to a stale entry instead of a decode failure.
type envelope struct {
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store is a filesystem-backed cache of JSON envelopes, one file per key.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates the cache directory if needed and returns a store over it.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	return &Store{
		dir: dir,
		log: log.With().Str("component", "cache_store").Logger(),
	}, nil
}

// Key builds a cache key from a source name and its arguments.
// Any character outside [a-zA-Z0-9] is replaced with an underscore so the
// key is always a safe filename.
func Key(source string, args ...string) string {
	parts := append([]string{source}, args...)
	raw := strings.Join(parts, "_")

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Get reads the entry for key. The second return is false when the key is
// absent or the file cannot be read or parsed as an envelope. An envelope
// with an unparseable timestamp is returned with a zero Timestamp.
func (s *Store) Get(key string) (*Entry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to read cache file")
		}
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupt cache file, treating as miss")
		return nil, false
	}

	entry := &Entry{Data: env.Data}
	ts, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	if err != nil {
		s.log.Warn().Str("key", key).Str("timestamp", env.Timestamp).Msg("Unparseable cache timestamp, treating as stale")
	} else {
		entry.Timestamp = ts
	}

	return entry, true
}

// Put writes payload under key, stamped with the current time. The write
// goes to a temp file first and is renamed into place so a crash never
// leaves a torn envelope behind.
func (s *Store) Put(key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload for %s: %w", key, err)
	}

	env := envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      data,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file for %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache file for %s: %w", key, err)
	}

	return nil
}

// Delete removes the entry for key. Missing entries are not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file for %s: %w", key, err)
	}
	return nil
}

// Keys lists every cached key.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// SweepExpired deletes every entry older than its TTL as reported by
// ttlFor, and every entry whose envelope is unreadable. Returns the number
// of entries removed.
func (s *Store) SweepExpired(now time.Time, ttlFor func(key string) time.Duration) int {
	keys, err := s.Keys()
	if err != nil {
		s.log.Warn().Err(err).Msg("Cache sweep aborted")
		return 0
	}

	removed := 0
	for _, key := range keys {
		entry, ok := s.Get(key)
		expired := !ok || entry.Timestamp.IsZero() || now.Sub(entry.Timestamp) > ttlFor(key)
		if !expired {
			continue
		}
		if err := s.Delete(key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove expired cache entry")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Swept expired cache entries")
	}
	return removed
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
