package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Repository persists per-account ticker notes as one flat JSON file
// per account, ticker to note text.
type Repository struct {
	dir string
	log zerolog.Logger
}

// NewRepository creates the notes directory if needed.
func NewRepository(dir string, log zerolog.Logger) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory %s: %w", dir, err)
	}
	return &Repository{
		dir: dir,
		log: log.With().Str("repo", "notes").Logger(),
	}, nil
}

// Load reads the notes for an account. A missing or corrupt file yields
// an empty map, never an error.
func (r *Repository) Load(account string) map[string]string {
	data, err := os.ReadFile(r.path(account))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("account", account).Msg("Failed to read notes file")
		}
		return map[string]string{}
	}

	var notes map[string]string
	if err := json.Unmarshal(data, &notes); err != nil {
		r.log.Warn().Err(err).Str("account", account).Msg("Corrupt notes file, starting empty")
		return map[string]string{}
	}
	if notes == nil {
		notes = map[string]string{}
	}
	return notes
}

// Save writes the notes for an account, going through a temp file so a
// crash never leaves a torn file behind.
func (r *Repository) Save(account string, notes map[string]string) error {
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal notes for %s: %w", account, err)
	}

	path := r.path(account)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write notes for %s: %w", account, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace notes for %s: %w", account, err)
	}
	return nil
}

// Set updates one ticker's note. An empty note removes the entry.
func (r *Repository) Set(account, ticker, note string) error {
	notes := r.Load(account)
	if note == "" {
		delete(notes, ticker)
	} else {
		notes[ticker] = note
	}
	return r.Save(account, notes)
}

func (r *Repository) path(account string) string {
	return filepath.Join(r.dir, account+".json")
}
