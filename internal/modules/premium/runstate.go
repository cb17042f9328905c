package premium

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultPastDate seeds the order mark for accounts with no saved state,
// far enough back to cover any realistic order history.
var DefaultPastDate = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

// RunState is the per-account accumulator state persisted between runs.
type RunState struct {
	LastPositionFetch time.Time                  `json:"last_position_fetch_date"`
	LastOrderMark     time.Time                  `json:"last_order_processed_date"`
	Premiums          map[string]decimal.Decimal `json:"ticker_premiums"`
}

// NewRunState returns a fresh state with the order mark at the sentinel.
func NewRunState() *RunState {
	return &RunState{
		LastPositionFetch: DefaultPastDate,
		LastOrderMark:     DefaultPastDate,
		Premiums:          make(map[string]decimal.Decimal),
	}
}

// Clone deep-copies the state so a snapshot run can compare before and
// after.
func (s *RunState) Clone() *RunState {
	premiums := make(map[string]decimal.Decimal, len(s.Premiums))
	for ticker, amount := range s.Premiums {
		premiums[ticker] = amount
	}
	return &RunState{
		LastPositionFetch: s.LastPositionFetch,
		LastOrderMark:     s.LastOrderMark,
		Premiums:          premiums,
	}
}

// PremiumsEqual reports whether two states carry the same premium totals.
func (s *RunState) PremiumsEqual(other *RunState) bool {
	if len(s.Premiums) != len(other.Premiums) {
		return false
	}
	for ticker, amount := range s.Premiums {
		otherAmount, ok := other.Premiums[ticker]
		if !ok || !amount.Equal(otherAmount) {
			return false
		}
	}
	return true
}

// NeedsSave decides whether the post-run state must be written back:
// when the order mark advanced, when any premium total changed, or when
// the saved position fetch mark is older than maxPositionAge.
func NeedsSave(prev, cur *RunState, now time.Time, maxPositionAge time.Duration) bool {
	if cur.LastOrderMark.After(prev.LastOrderMark) {
		return true
	}
	if !cur.PremiumsEqual(prev) {
		return true
	}
	if now.Sub(prev.LastPositionFetch) > maxPositionAge {
		return true
	}
	return false
}

// Repository persists run state as one JSON file per account.
type Repository struct {
	dir string
	log zerolog.Logger
}

// NewRepository creates the state directory if needed.
func NewRepository(dir string, log zerolog.Logger) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &Repository{
		dir: dir,
		log: log.With().Str("repo", "run_state").Logger(),
	}, nil
}

// Load reads the state for an account. A missing or corrupt file yields
// a fresh state, never an error.
func (r *Repository) Load(account string) *RunState {
	data, err := os.ReadFile(r.path(account))
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("account", account).Msg("Failed to read run state, starting fresh")
		}
		return NewRunState()
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		r.log.Warn().Err(err).Str("account", account).Msg("Corrupt run state, starting fresh")
		return NewRunState()
	}

	if state.Premiums == nil {
		state.Premiums = make(map[string]decimal.Decimal)
	}
	if state.LastOrderMark.IsZero() {
		state.LastOrderMark = DefaultPastDate
	}
	if state.LastPositionFetch.IsZero() {
		state.LastPositionFetch = DefaultPastDate
	}

	return &state
}

// Save writes the state for an account via a temp file rename.
func (r *Repository) Save(account string, state *RunState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state for %s: %w", account, err)
	}

	tmp, err := os.CreateTemp(r.dir, account+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file for %s: %w", account, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write run state for %s: %w", account, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close run state file for %s: %w", account, err)
	}

	if err := os.Rename(tmpName, r.path(account)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit run state for %s: %w", account, err)
	}

	return nil
}

func (r *Repository) path(account string) string {
	return filepath.Join(r.dir, account+".json")
}
