package tickerdata

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetafolio/thetafolio/internal/cache"
	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/clients/yahoo"
	"github.com/thetafolio/thetafolio/internal/modules/market_hours"
)

type fakeBrokerage struct {
	quoteCalls       int
	quote            *robinhood.Quote
	quoteErr         error
	fundamentals     *robinhood.Fundamentals
	instrument       *robinhood.Instrument
	symbolInstrument *robinhood.Instrument
	marketData       *robinhood.OptionMarketData
}

func (f *fakeBrokerage) GetQuote(symbol string) (*robinhood.Quote, error) {
	f.quoteCalls++
	return f.quote, f.quoteErr
}

func (f *fakeBrokerage) GetFundamentals(symbol string) (*robinhood.Fundamentals, error) {
	if f.fundamentals == nil {
		return nil, fmt.Errorf("no fundamentals")
	}
	return f.fundamentals, nil
}

func (f *fakeBrokerage) GetInstrument(instrumentURL string) (*robinhood.Instrument, error) {
	if f.instrument == nil {
		return nil, fmt.Errorf("no instrument")
	}
	return f.instrument, nil
}

func (f *fakeBrokerage) GetInstrumentBySymbol(symbol string) (*robinhood.Instrument, error) {
	if f.symbolInstrument == nil {
		return nil, fmt.Errorf("no instrument for %s", symbol)
	}
	return f.symbolInstrument, nil
}

func (f *fakeBrokerage) GetOptionMarketData(optionID string) (*robinhood.OptionMarketData, error) {
	if f.marketData == nil {
		return nil, fmt.Errorf("no market data")
	}
	return f.marketData, nil
}

type fakeHistory struct {
	bars      []yahoo.HistoricalPrice
	barsErr   error
	yearly    []yahoo.RevenueEntry
	quarterly []yahoo.RevenueEntry
}

func (f *fakeHistory) GetHistoricalRange(symbol, period string) ([]yahoo.HistoricalPrice, error) {
	return f.bars, f.barsErr
}

func (f *fakeHistory) GetRevenueHistory(symbol string, quarterly bool) ([]yahoo.RevenueEntry, error) {
	if quarterly {
		return f.quarterly, nil
	}
	return f.yearly, nil
}

func newTestService(brokerage *fakeBrokerage, history *fakeHistory) (*Service, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	hours := market_hours.NewService(market_hours.DefaultSession("America/New_York"))
	policy := cache.NewPolicy(cache.DefaultTTLConfig(), hours)
	return NewService(store, policy, brokerage, history, zerolog.Nop()), store
}

func TestLatestPrice_CachesFetch(t *testing.T) {
	brokerage := &fakeBrokerage{quote: &robinhood.Quote{LastTradePrice: "187.50"}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	price, err := service.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.50, price)

	// Second read is served from cache
	price, err = service.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.50, price)
	assert.Equal(t, 1, brokerage.quoteCalls)
}

func TestLatestPrice_ExpiredEntryRefetches(t *testing.T) {
	brokerage := &fakeBrokerage{quote: &robinhood.Quote{LastTradePrice: "187.50"}}
	service, store := newTestService(brokerage, &fakeHistory{})

	// Plant an entry older than the price TTL
	past := time.Now().Add(-time.Hour)
	store.SetClock(func() time.Time { return past })
	require.NoError(t, store.Put(cache.Key("latest_price", "AAPL"), 100.0))
	store.SetClock(time.Now)

	price, err := service.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.50, price)
	assert.Equal(t, 1, brokerage.quoteCalls)
}

func TestLatestPrice_ServesStaleOnFetchFailure(t *testing.T) {
	brokerage := &fakeBrokerage{quoteErr: fmt.Errorf("upstream down")}
	service, store := newTestService(brokerage, &fakeHistory{})

	past := time.Now().Add(-time.Hour)
	store.SetClock(func() time.Time { return past })
	require.NoError(t, store.Put(cache.Key("latest_price", "AAPL"), 100.0))
	store.SetClock(time.Now)

	price, err := service.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)
}

func TestLatestPrice_FallsBackToExtendedHours(t *testing.T) {
	brokerage := &fakeBrokerage{quote: &robinhood.Quote{LastExtendedHoursTradePrice: "92.10"}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	price, err := service.LatestPrice("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 92.10, price)
}

func TestFundamentals_MissingFieldsDefaultToZero(t *testing.T) {
	brokerage := &fakeBrokerage{fundamentals: &robinhood.Fundamentals{
		PERatio:     "",
		High52Weeks: "199.62",
		Low52Weeks:  "not a number",
		MarketCap:   "2950000000000.00",
		Sector:      "Technology",
	}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	fundamentals, err := service.Fundamentals("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0.0, fundamentals.PERatio)
	assert.Equal(t, 199.62, fundamentals.High52Weeks)
	assert.Equal(t, 0.0, fundamentals.Low52Weeks)
	assert.Equal(t, 2.95e12, fundamentals.MarketCap)
	assert.Equal(t, "Technology", fundamentals.Sector)
}

func TestCompanyName_PrefersSimpleName(t *testing.T) {
	brokerage := &fakeBrokerage{symbolInstrument: &robinhood.Instrument{
		Symbol:     "AAPL",
		SimpleName: "Apple",
		Name:       "Apple Inc. Common Stock",
	}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	name, err := service.CompanyName("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple", name)
}

func TestCompanyName_FallsBackToFullName(t *testing.T) {
	brokerage := &fakeBrokerage{symbolInstrument: &robinhood.Instrument{
		Symbol: "VTI",
		Name:   "Vanguard Total Stock Market ETF",
	}}
	service, store := newTestService(brokerage, &fakeHistory{})

	name, err := service.CompanyName("VTI")
	require.NoError(t, err)
	assert.Equal(t, "Vanguard Total Stock Market ETF", name)

	// Names cache on the long instrument horizon
	_, ok := store.Get(cache.Key("company_name", "VTI"))
	assert.True(t, ok)
}

func TestInstrumentSymbol(t *testing.T) {
	brokerage := &fakeBrokerage{instrument: &robinhood.Instrument{Symbol: "VTI"}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	symbol, err := service.InstrumentSymbol("https://api.example.com/instruments/abc/")
	require.NoError(t, err)
	assert.Equal(t, "VTI", symbol)
}

func TestOptionQuote(t *testing.T) {
	brokerage := &fakeBrokerage{marketData: &robinhood.OptionMarketData{
		MarkPrice: "2.35",
		OCCSymbol: "AAPL  240621C00190000",
	}}
	service, _ := newTestService(brokerage, &fakeHistory{})

	quote, err := service.OptionQuote("opt-1")
	require.NoError(t, err)
	assert.Equal(t, 2.35, quote.MarkPrice)
	assert.Equal(t, "AAPL  240621C00190000", quote.OCCSymbol)
}

func barsFromCloses(closes ...float64) []yahoo.HistoricalPrice {
	bars := make([]yahoo.HistoricalPrice, len(closes))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = yahoo.HistoricalPrice{Date: day.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestPriceChanges(t *testing.T) {
	// 70 bars climbing from 100, one point per day
	closes := make([]float64, 70)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	history := &fakeHistory{bars: barsFromCloses(closes...)}
	service, _ := newTestService(&fakeBrokerage{}, history)

	changes, err := service.PriceChanges("AAPL")
	require.NoError(t, err)

	latest := closes[len(closes)-1]
	assert.InDelta(t, (latest-closes[64])/closes[64]*100, changes.OneWeekPct, 1e-9)
	assert.InDelta(t, (latest-closes[48])/closes[48]*100, changes.OneMonthPct, 1e-9)
	assert.InDelta(t, (latest-closes[6])/closes[6]*100, changes.ThreeMonthPct, 1e-9)
	assert.InDelta(t, (latest-closes[0])/closes[0]*100, changes.OneYearPct, 1e-9)
}

func TestPriceChanges_EmptySeries(t *testing.T) {
	service, _ := newTestService(&fakeBrokerage{}, &fakeHistory{})

	changes, err := service.PriceChanges("AAPL")
	require.NoError(t, err)
	assert.Equal(t, PriceChanges{}, changes)
}

func TestRevenueChanges(t *testing.T) {
	history := &fakeHistory{
		yearly: []yahoo.RevenueEntry{
			{TotalRevenue: 100e9},
			{TotalRevenue: 110e9},
		},
		quarterly: []yahoo.RevenueEntry{
			{TotalRevenue: 25e9},
			{TotalRevenue: 24e9},
		},
	}
	service, _ := newTestService(&fakeBrokerage{}, history)

	changes, err := service.RevenueChanges("AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, changes.YearlyPct, 1e-9)
	assert.InDelta(t, -4.0, changes.QuarterlyPct, 1e-9)
	assert.Equal(t, 110e9, changes.LatestAnnual)
}

func TestDailyCloses(t *testing.T) {
	history := &fakeHistory{bars: barsFromCloses(10, 11, 12)}
	service, _ := newTestService(&fakeBrokerage{}, history)

	closes, err := service.DailyCloses("AAPL")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, closes)
}
