package tickerdata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/cache"
	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/clients/yahoo"
	"github.com/thetafolio/thetafolio/pkg/formulas"
)

// BrokerageSource is the slice of the brokerage client this service uses
type BrokerageSource interface {
	GetFundamentals(symbol string) (*robinhood.Fundamentals, error)
	GetQuote(symbol string) (*robinhood.Quote, error)
	GetInstrument(instrumentURL string) (*robinhood.Instrument, error)
	GetInstrumentBySymbol(symbol string) (*robinhood.Instrument, error)
	GetOptionMarketData(optionID string) (*robinhood.OptionMarketData, error)
}

// HistorySource is the slice of the market data client this service uses
type HistorySource interface {
	GetHistoricalRange(symbol, period string) ([]yahoo.HistoricalPrice, error)
	GetRevenueHistory(symbol string, quarterly bool) ([]yahoo.RevenueEntry, error)
}

// Service is the cache-gated gateway to all per-ticker market data.
// Every read goes through the store: a fresh entry short-circuits the
// upstream call, a fetch failure falls back to a stale entry when one
// exists.
type Service struct {
	store     cache.Backend
	policy    *cache.Policy
	brokerage BrokerageSource
	history   HistorySource
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new ticker data service
func NewService(store cache.Backend, policy *cache.Policy, brokerage BrokerageSource, history HistorySource, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		policy:    policy,
		brokerage: brokerage,
		history:   history,
		log:       log.With().Str("component", "tickerdata").Logger(),
		now:       time.Now,
	}
}

// SetClock overrides the freshness clock, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// cached runs one fetch through the store. Fresh hit wins, then a
// successful fetch, then a stale entry when the fetch fails.
func cached[T any](s *Service, key string, category cache.Category, fetch func() (T, error)) (T, error) {
	now := s.now()

	entry, haveEntry := s.store.Get(key)
	if haveEntry && s.policy.FreshEntry(now, entry, category) {
		var value T
		if err := entry.Decode(&value); err == nil {
			return value, nil
		}
		s.log.Warn().Str("key", key).Msg("Undecodable cache payload, refetching")
	}

	value, err := fetch()
	if err != nil {
		if haveEntry {
			var stale T
			if decodeErr := entry.Decode(&stale); decodeErr == nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Fetch failed, serving stale cache entry")
				return stale, nil
			}
		}
		var zero T
		return zero, err
	}

	if err := s.store.Put(key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to write cache entry")
	}

	return value, nil
}

// LatestPrice returns the latest trade price for a symbol
func (s *Service) LatestPrice(symbol string) (float64, error) {
	return cached(s, cache.Key("latest_price", symbol), cache.CategoryPrice, func() (float64, error) {
		quote, err := s.brokerage.GetQuote(symbol)
		if err != nil {
			return 0, err
		}

		price := parseFloat(quote.LastTradePrice)
		if price == 0 {
			price = parseFloat(quote.LastExtendedHoursTradePrice)
		}
		if price == 0 {
			return 0, fmt.Errorf("no usable price in quote for %s", symbol)
		}
		return price, nil
	})
}

// InstrumentSymbol resolves an instrument URL to its ticker symbol
func (s *Service) InstrumentSymbol(instrumentURL string) (string, error) {
	return cached(s, cache.Key("instrument", instrumentURL), cache.CategoryInstrument, func() (string, error) {
		instrument, err := s.brokerage.GetInstrument(instrumentURL)
		if err != nil {
			return "", err
		}
		if instrument.Symbol == "" {
			return "", fmt.Errorf("instrument %s has no symbol", instrumentURL)
		}
		return instrument.Symbol, nil
	})
}

// CompanyName returns the display name for a symbol. Names almost never
// change so they sit on the long instrument horizon.
func (s *Service) CompanyName(symbol string) (string, error) {
	return cached(s, cache.Key("company_name", symbol), cache.CategoryInstrument, func() (string, error) {
		instrument, err := s.brokerage.GetInstrumentBySymbol(symbol)
		if err != nil {
			return "", err
		}
		if instrument.SimpleName != "" {
			return instrument.SimpleName, nil
		}
		return instrument.Name, nil
	})
}

// Fundamentals returns parsed reference data for a symbol
func (s *Service) Fundamentals(symbol string) (Fundamentals, error) {
	return cached(s, cache.Key("fundamentals", symbol), cache.CategoryFundamentals, func() (Fundamentals, error) {
		wire, err := s.brokerage.GetFundamentals(symbol)
		if err != nil {
			return Fundamentals{}, err
		}
		return Fundamentals{
			Symbol:      symbol,
			PERatio:     parseFloat(wire.PERatio),
			High52Weeks: parseFloat(wire.High52Weeks),
			Low52Weeks:  parseFloat(wire.Low52Weeks),
			MarketCap:   parseFloat(wire.MarketCap),
			Sector:      wire.Sector,
			Industry:    wire.Industry,
		}, nil
	})
}

// OptionQuote returns the parsed market view of one option contract
func (s *Service) OptionQuote(optionID string) (OptionQuote, error) {
	return cached(s, cache.Key("option_market_data", optionID), cache.CategoryOptionMarketData, func() (OptionQuote, error) {
		wire, err := s.brokerage.GetOptionMarketData(optionID)
		if err != nil {
			return OptionQuote{}, err
		}
		return OptionQuote{
			MarkPrice: parseFloat(wire.MarkPrice),
			OCCSymbol: wire.OCCSymbol,
		}, nil
	})
}

// DailyBars returns roughly one year of daily OHLCV bars for a symbol
func (s *Service) DailyBars(symbol string) ([]yahoo.HistoricalPrice, error) {
	return cached(s, cache.Key("daily_closes", symbol), cache.CategoryHistorical, func() ([]yahoo.HistoricalPrice, error) {
		return s.history.GetHistoricalRange(symbol, "1y")
	})
}

// DailyCloses returns the close series behind DailyBars
func (s *Service) DailyCloses(symbol string) ([]float64, error) {
	bars, err := s.DailyBars(symbol)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes, nil
}

// Trailing trading-day offsets into the daily close series
const (
	offsetOneWeek    = 5
	offsetOneMonth   = 21
	offsetThreeMonth = 63
)

// PriceChanges returns trailing performance percentages computed from
// the daily close series
func (s *Service) PriceChanges(symbol string) (PriceChanges, error) {
	return cached(s, cache.Key("price_changes", symbol), cache.CategoryHistorical, func() (PriceChanges, error) {
		closes, err := s.DailyCloses(symbol)
		if err != nil {
			return PriceChanges{}, err
		}
		if len(closes) == 0 {
			return PriceChanges{}, nil
		}

		latest := closes[len(closes)-1]
		closeAgo := func(tradingDays int) float64 {
			idx := len(closes) - 1 - tradingDays
			if idx < 0 {
				idx = 0
			}
			return closes[idx]
		}

		return PriceChanges{
			OneWeekPct:    formulas.PercentChange(closeAgo(offsetOneWeek), latest),
			OneMonthPct:   formulas.PercentChange(closeAgo(offsetOneMonth), latest),
			ThreeMonthPct: formulas.PercentChange(closeAgo(offsetThreeMonth), latest),
			OneYearPct:    formulas.PercentChange(closes[0], latest),
		}, nil
	})
}

// RevenueChanges returns year-over-year and quarter-over-quarter revenue
// growth for a symbol
func (s *Service) RevenueChanges(symbol string) (RevenueChanges, error) {
	return cached(s, cache.Key("revenue_changes", symbol), cache.CategoryRevenue, func() (RevenueChanges, error) {
		var changes RevenueChanges

		yearly, err := s.history.GetRevenueHistory(symbol, false)
		if err != nil {
			return RevenueChanges{}, err
		}
		if n := len(yearly); n > 0 {
			changes.LatestAnnual = yearly[n-1].TotalRevenue
			if n >= 2 {
				changes.YearlyPct = formulas.PercentChange(yearly[n-2].TotalRevenue, yearly[n-1].TotalRevenue)
			}
		}

		quarterly, err := s.history.GetRevenueHistory(symbol, true)
		if err != nil {
			return RevenueChanges{}, err
		}
		if n := len(quarterly); n >= 2 {
			changes.QuarterlyPct = formulas.PercentChange(quarterly[n-2].TotalRevenue, quarterly[n-1].TotalRevenue)
		}

		return changes, nil
	})
}

// parseFloat parses a wire numeric, returning 0 for empty or malformed
// values so one bad field degrades to a default instead of an error
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
