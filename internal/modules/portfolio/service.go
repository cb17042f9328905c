package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/cache"
	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/modules/enrichment"
	"github.com/thetafolio/thetafolio/internal/modules/premium"
	"github.com/thetafolio/thetafolio/pkg/formulas"
)

// ErrUnknownAccount marks a request for an account name that is not
// configured.
var ErrUnknownAccount = errors.New("unknown account")

// maxPositionAge bounds how old the saved position fetch mark may get
// before a run writes state back even when nothing else changed.
const maxPositionAge = 5 * time.Minute

// Brokerage is the slice of the brokerage client the snapshot build uses.
type Brokerage interface {
	GetStockPositions(accountNumber string) ([]robinhood.StockPosition, error)
	GetOptionPositions(accountNumber string) ([]robinhood.OptionPosition, error)
	GetPortfolioProfile(accountNumber string) (*robinhood.PortfolioProfile, error)
	GetAccountProfile(accountNumber string) (*robinhood.AccountProfile, error)
	GetCryptoHoldings() ([]robinhood.CryptoHolding, error)
}

// Service assembles portfolio snapshots behind the filesystem cache.
// A fresh cached snapshot is served as-is, a stale or missing one
// triggers a full rebuild: premium accumulation, position enrichment,
// summary rollup, cache write-back and a CSV mirror.
type Service struct {
	accounts    map[string]string
	store       cache.Backend
	policy      *cache.Policy
	brokerage   Brokerage
	enricher    *enrichment.Enricher
	stateRepo   *premium.Repository
	accumulator *premium.Accumulator
	csvDir      string
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates the portfolio snapshot service. accounts maps
// display names to brokerage account numbers.
func NewService(
	accounts map[string]string,
	store cache.Backend,
	policy *cache.Policy,
	brokerage Brokerage,
	enricher *enrichment.Enricher,
	stateRepo *premium.Repository,
	accumulator *premium.Accumulator,
	csvDir string,
	log zerolog.Logger,
) *Service {
	return &Service{
		accounts:    accounts,
		store:       store,
		policy:      policy,
		brokerage:   brokerage,
		enricher:    enricher,
		stateRepo:   stateRepo,
		accumulator: accumulator,
		csvDir:      csvDir,
		log:         log.With().Str("component", "portfolio").Logger(),
		now:         time.Now,
	}
}

// SetClock overrides the time source, tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// AccountNames returns the configured account names, sorted.
func (s *Service) AccountNames() []string {
	names := make([]string, 0, len(s.accounts))
	for name := range s.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSnapshot returns the portfolio snapshot for one account. A cached
// snapshot within the market-hours TTL is served unless force is set.
func (s *Service) GetSnapshot(ctx context.Context, account string, force bool) (*Snapshot, error) {
	number, ok := s.accounts[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	key := cache.Key("portfolio_snapshot", account)
	now := s.now()

	if !force {
		if entry, ok := s.store.Get(key); ok && s.policy.FreshEntry(now, entry, cache.CategorySnapshot) {
			var snapshot Snapshot
			if err := entry.Decode(&snapshot); err == nil {
				s.log.Debug().Str("account", account).Time("captured", entry.Timestamp).Msg("Serving cached snapshot")
				return &snapshot, nil
			}
			s.log.Warn().Str("account", account).Msg("Cached snapshot undecodable, rebuilding")
		}
	}

	snapshot, err := s.buildSnapshot(ctx, account, number)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(key, snapshot); err != nil {
		s.log.Warn().Err(err).Str("account", account).Msg("Failed to cache snapshot")
	}
	if s.csvDir != "" {
		if err := writeCSV(s.csvDir, account, snapshot); err != nil {
			s.log.Warn().Err(err).Str("account", account).Msg("Failed to write CSV mirror")
		}
	}

	return snapshot, nil
}

// buildSnapshot runs the full pipeline for one account. Profile fetches
// are fatal, everything else degrades row by row or field by field.
func (s *Service) buildSnapshot(ctx context.Context, account, number string) (*Snapshot, error) {
	now := s.now()

	prev := s.stateRepo.Load(account)
	state := prev.Clone()
	if err := s.accumulator.Refresh(number, state); err != nil {
		s.log.Warn().Err(err).Str("account", account).Msg("Premium refresh failed, keeping stale totals")
	}

	portfolioProfile, err := s.brokerage.GetPortfolioProfile(number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio profile for %s: %w", account, err)
	}
	accountProfile, err := s.brokerage.GetAccountProfile(number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account profile for %s: %w", account, err)
	}

	stocks, err := s.brokerage.GetStockPositions(number)
	if err != nil {
		s.log.Warn().Err(err).Str("account", account).Msg("Failed to fetch stock positions")
	}
	options, err := s.brokerage.GetOptionPositions(number)
	if err != nil {
		s.log.Warn().Err(err).Str("account", account).Msg("Failed to fetch option positions")
	}
	holdings, err := s.brokerage.GetCryptoHoldings()
	if err != nil {
		s.log.Warn().Err(err).Str("account", account).Msg("Failed to fetch crypto holdings")
	}

	positions := make([]*enrichment.Position, 0, len(stocks)+len(options)+len(holdings)+1)
	for _, pos := range stocks {
		if row := s.enricher.EnrichStock(ctx, account, pos, state.Premiums); row != nil {
			positions = append(positions, row)
		}
	}
	for _, pos := range options {
		positions = append(positions, s.enricher.EnrichOption(ctx, account, pos, state.Premiums))
	}

	cash := parseFloat(accountProfile.Cash) + parseFloat(accountProfile.UnclearedDeposits)
	positions = append(positions, enrichment.CashRow(account, cash))

	var cryptoEquity float64
	for _, holding := range holdings {
		row := enrichment.CryptoRow(account, holding)
		if row.Quantity == 0 {
			continue
		}
		cryptoEquity += row.MarketValue
		positions = append(positions, row)
	}

	state.LastPositionFetch = now
	if premium.NeedsSave(prev, state, now, maxPositionAge) {
		if err := s.stateRepo.Save(account, state); err != nil {
			s.log.Warn().Err(err).Str("account", account).Msg("Failed to save run state")
		}
	}

	summary := summarize(positions, portfolioProfile, cryptoEquity, state)
	s.log.Info().
		Str("account", account).
		Int("positions", len(positions)).
		Float64("total_equity", summary.TotalEquity).
		Msg("Built portfolio snapshot")

	return &Snapshot{
		Account:   account,
		Summary:   summary,
		Positions: positions,
		Timestamp: now.UTC(),
	}, nil
}

// summarize rolls the enriched rows and the profile into the header
// summary. Day change is measured on brokerage equity only, crypto is
// carried at cost and has no previous close.
func summarize(positions []*enrichment.Position, profile *robinhood.PortfolioProfile, cryptoEquity float64, state *premium.RunState) Summary {
	equity := parseFloat(profile.Equity)
	if extended := parseFloat(profile.ExtendedHoursEquity); extended > equity {
		equity = extended
	}
	prevClose := parseFloat(profile.EquityPreviousClose)

	var totalPnl float64
	tickers := make(map[string]struct{})
	for _, row := range positions {
		totalPnl += row.UnrealizedPnl
		if row.Type == enrichment.TypeStock || row.Type == enrichment.TypeOption {
			tickers[row.Ticker] = struct{}{}
		}
	}

	var earnedPremium float64
	for _, amount := range state.Premiums {
		value, _ := amount.Float64()
		earnedPremium += value
	}

	summary := Summary{
		TotalEquity:   equity + cryptoEquity,
		CryptoEquity:  cryptoEquity,
		TotalPnl:      totalPnl,
		TotalTickers:  len(tickers),
		EarnedPremium: earnedPremium,
	}
	if prevClose > 0 {
		summary.ChangeTodayAbs = equity - prevClose
		summary.ChangeTodayPct = formulas.PercentChange(prevClose, equity)
	}
	return summary
}

// GetCombined merges every configured account into one view. Accounts
// whose snapshot cannot be built are skipped with a warning.
func (s *Service) GetCombined(ctx context.Context) (*Snapshot, error) {
	var snapshots []*Snapshot
	for _, name := range s.AccountNames() {
		snapshot, err := s.GetSnapshot(ctx, name, false)
		if err != nil {
			s.log.Warn().Err(err).Str("account", name).Msg("Skipping account in combined view")
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	if len(snapshots) == 0 {
		return nil, errors.New("no account snapshot available")
	}
	return mergeSnapshots(snapshots, s.now().UTC()), nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
