package enrichment

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/modules/indicators"
	"github.com/thetafolio/thetafolio/internal/modules/tickerdata"
)

type fakeMarketData struct {
	prices       map[string]float64
	symbols      map[string]string
	names        map[string]string
	fundamentals map[string]tickerdata.Fundamentals
	optionQuotes map[string]tickerdata.OptionQuote
	changes      map[string]tickerdata.PriceChanges
	revenue      map[string]tickerdata.RevenueChanges
	closes       map[string][]float64
}

func (f *fakeMarketData) LatestPrice(symbol string) (float64, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return price, nil
}

func (f *fakeMarketData) InstrumentSymbol(instrumentURL string) (string, error) {
	symbol, ok := f.symbols[instrumentURL]
	if !ok {
		return "", fmt.Errorf("unknown instrument %s", instrumentURL)
	}
	return symbol, nil
}

func (f *fakeMarketData) CompanyName(symbol string) (string, error) {
	name, ok := f.names[symbol]
	if !ok {
		return "", fmt.Errorf("no name for %s", symbol)
	}
	return name, nil
}

func (f *fakeMarketData) Fundamentals(symbol string) (tickerdata.Fundamentals, error) {
	fund, ok := f.fundamentals[symbol]
	if !ok {
		return tickerdata.Fundamentals{}, fmt.Errorf("no fundamentals for %s", symbol)
	}
	return fund, nil
}

func (f *fakeMarketData) OptionQuote(optionID string) (tickerdata.OptionQuote, error) {
	quote, ok := f.optionQuotes[optionID]
	if !ok {
		return tickerdata.OptionQuote{}, fmt.Errorf("no quote for %s", optionID)
	}
	return quote, nil
}

func (f *fakeMarketData) PriceChanges(symbol string) (tickerdata.PriceChanges, error) {
	changes, ok := f.changes[symbol]
	if !ok {
		return tickerdata.PriceChanges{}, fmt.Errorf("no history for %s", symbol)
	}
	return changes, nil
}

func (f *fakeMarketData) RevenueChanges(symbol string) (tickerdata.RevenueChanges, error) {
	revenue, ok := f.revenue[symbol]
	if !ok {
		return tickerdata.RevenueChanges{}, fmt.Errorf("no revenue for %s", symbol)
	}
	return revenue, nil
}

func (f *fakeMarketData) DailyCloses(symbol string) ([]float64, error) {
	closes, ok := f.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("no closes for %s", symbol)
	}
	return closes, nil
}

func newTestEnricher(t *testing.T, data *fakeMarketData) *Enricher {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(indicators.Schema)
	require.NoError(t, err)

	return NewEnricher(data, indicators.NewCache(db, zerolog.Nop()), zerolog.Nop())
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func TestEnrichStock_FullContext(t *testing.T) {
	data := &fakeMarketData{
		prices:  map[string]float64{"AAPL": 150},
		symbols: map[string]string{"http://x/i/1/": "AAPL"},
		names:   map[string]string{"AAPL": "Apple"},
		fundamentals: map[string]tickerdata.Fundamentals{
			"AAPL": {Symbol: "AAPL", PERatio: 30, High52Weeks: 200, Low52Weeks: 100, MarketCap: 3e12, Sector: "Technology"},
		},
		changes: map[string]tickerdata.PriceChanges{
			"AAPL": {OneWeekPct: 1, OneMonthPct: 2, ThreeMonthPct: 3, OneYearPct: 4},
		},
		revenue: map[string]tickerdata.RevenueChanges{
			"AAPL": {YearlyPct: 8, QuarterlyPct: -2, LatestAnnual: 400e9},
		},
		closes: map[string][]float64{"AAPL": risingCloses(30)},
	}
	enricher := newTestEnricher(t, data)

	premiums := map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(312.5)}
	pos := robinhood.StockPosition{
		InstrumentURL:   "http://x/i/1/",
		Quantity:        "10.0000",
		AverageBuyPrice: "120.00",
	}

	row := enricher.EnrichStock(context.Background(), "INDIVIDUAL", pos, premiums)
	require.NotNil(t, row)

	assert.Equal(t, TypeStock, row.Type)
	assert.Equal(t, "AAPL", row.Ticker)
	assert.Equal(t, "Apple", row.Name)
	assert.Equal(t, "INDIVIDUAL", row.Account)
	assert.Equal(t, 10.0, row.Quantity)
	assert.Equal(t, 1500.0, row.MarketValue)
	assert.Equal(t, 1200.0, row.CostBasis)
	assert.Equal(t, 300.0, row.UnrealizedPnl)
	assert.InDelta(t, 25.0, row.ReturnPct, 1e-9)
	assert.Equal(t, 312.5, row.EarnedPremium)

	assert.Equal(t, "Technology", row.Sector)
	assert.Equal(t, 30.0, row.PERatio)
	assert.InDelta(t, 50.0, row.RangePct52Week, 1e-9) // (150-100)/(200-100)
	assert.Equal(t, 1.0, row.OneWeekChangePct)
	assert.Equal(t, 4.0, row.OneYearChangePct)
	assert.Equal(t, 8.0, row.RevenueYearlyPct)
	require.NotNil(t, row.RSI)
	assert.InDelta(t, 100, *row.RSI, 0.01)
	assert.InDelta(t, 20.0, row.PELow52Week, 1e-9)  // 30 * 100/150
	assert.InDelta(t, 40.0, row.PEHigh52Week, 1e-9) // 30 * 200/150
	// P/S = 3e12 / 400e9 = 7.5, scaled by the same price band
	assert.InDelta(t, 5.0, row.PSLow52Week, 1e-9)
	assert.InDelta(t, 10.0, row.PSHigh52Week, 1e-9)
}

func TestEnrichStock_UnresolvableInstrumentSkipped(t *testing.T) {
	enricher := newTestEnricher(t, &fakeMarketData{})

	row := enricher.EnrichStock(context.Background(), "INDIVIDUAL", robinhood.StockPosition{
		InstrumentURL: "http://x/i/unknown/",
		Quantity:      "1",
	}, nil)
	assert.Nil(t, row)
}

func TestEnrichStock_MissingSourcesYieldDefaults(t *testing.T) {
	// Only the instrument resolves, everything else is down
	data := &fakeMarketData{
		symbols: map[string]string{"http://x/i/1/": "AAPL"},
	}
	enricher := newTestEnricher(t, data)

	row := enricher.EnrichStock(context.Background(), "INDIVIDUAL", robinhood.StockPosition{
		InstrumentURL:   "http://x/i/1/",
		Quantity:        "10",
		AverageBuyPrice: "120.00",
	}, nil)
	require.NotNil(t, row)

	assert.Equal(t, 0.0, row.MarkPrice)
	assert.Equal(t, 0.0, row.MarketValue)
	assert.Equal(t, -1200.0, row.UnrealizedPnl)
	assert.Equal(t, "", row.Name)
	assert.Equal(t, "", row.Sector)
	assert.Equal(t, 0.0, row.PSLow52Week)
	assert.Nil(t, row.RSI)
	assert.Equal(t, 0.0, row.EarnedPremium)
}

func TestEnrichStock_MissingAvgCostDefaultsToZero(t *testing.T) {
	data := &fakeMarketData{
		prices:  map[string]float64{"AAPL": 150},
		symbols: map[string]string{"http://x/i/1/": "AAPL"},
	}
	enricher := newTestEnricher(t, data)

	row := enricher.EnrichStock(context.Background(), "INDIVIDUAL", robinhood.StockPosition{
		InstrumentURL: "http://x/i/1/",
		Quantity:      "2",
	}, nil)
	require.NotNil(t, row)

	assert.Equal(t, 0.0, row.AvgCost)
	assert.Equal(t, 300.0, row.MarketValue)
	assert.Equal(t, 300.0, row.UnrealizedPnl)
	// Zero cost basis cannot produce a return percentage
	assert.Equal(t, 0.0, row.ReturnPct)
}

func TestEnrichOption_LongPosition(t *testing.T) {
	data := &fakeMarketData{
		optionQuotes: map[string]tickerdata.OptionQuote{
			"opt-1": {MarkPrice: 3.00, OCCSymbol: "AAPL  240621C00190000"},
		},
	}
	enricher := newTestEnricher(t, data)

	row := enricher.EnrichOption(context.Background(), "INDIVIDUAL", robinhood.OptionPosition{
		OptionID:     "opt-1",
		ChainSymbol:  "AAPL",
		Type:         "long",
		Quantity:     "2.0000",
		AveragePrice: "250.00", // per contract, 2.50 per share
	}, nil)

	assert.Equal(t, TypeOption, row.Type)
	assert.Equal(t, "AAPL", row.Ticker)
	assert.Equal(t, "long", row.Side)
	assert.Equal(t, 2.5, row.AvgCost)
	assert.Equal(t, 3.0, row.MarkPrice)
	assert.Equal(t, 600.0, row.MarketValue) // 3.00 * 2 * 100
	assert.Equal(t, 500.0, row.CostBasis)   // 2.50 * 2 * 100
	assert.Equal(t, 100.0, row.UnrealizedPnl)
	assert.InDelta(t, 20.0, row.ReturnPct, 1e-9)

	assert.Equal(t, 190.0, row.Strike)
	assert.Equal(t, "call", row.OptionType)
	assert.Equal(t, "2024-06-21", row.Expiry)
}

func TestEnrichOption_ShortPositionFlipsPnl(t *testing.T) {
	data := &fakeMarketData{
		optionQuotes: map[string]tickerdata.OptionQuote{
			"opt-2": {MarkPrice: 1.00, OCCSymbol: "TSLA  240920P00200000"},
		},
	}
	enricher := newTestEnricher(t, data)

	row := enricher.EnrichOption(context.Background(), "INDIVIDUAL", robinhood.OptionPosition{
		OptionID:     "opt-2",
		ChainSymbol:  "TSLA",
		Type:         "short",
		Quantity:     "1.0000",
		AveragePrice: "-250.00", // sold for 2.50 per share
	}, nil)

	// Sold at 2.50, now marked 1.00: 150 profit on one contract
	assert.Equal(t, 150.0, row.UnrealizedPnl)
	assert.Equal(t, -100.0, row.MarketValue)
	assert.Equal(t, -250.0, row.CostBasis)
	assert.InDelta(t, 60.0, row.ReturnPct, 1e-9)
	assert.Equal(t, "put", row.OptionType)
}

func TestEnrichOption_NoMarkStillEmits(t *testing.T) {
	enricher := newTestEnricher(t, &fakeMarketData{})

	row := enricher.EnrichOption(context.Background(), "INDIVIDUAL", robinhood.OptionPosition{
		OptionID:     "opt-missing",
		ChainSymbol:  "NVDA",
		Type:         "short",
		Quantity:     "1",
		AveragePrice: "-500.00",
	}, nil)

	require.NotNil(t, row)
	assert.Equal(t, 0.0, row.MarkPrice)
	assert.Equal(t, "NVDA", row.Ticker)
	assert.Equal(t, 0.0, row.Strike)
	assert.Equal(t, "", row.Expiry)
}

func TestCashRow(t *testing.T) {
	row := CashRow("INDIVIDUAL", 2500.75)

	assert.Equal(t, TypeCash, row.Type)
	assert.Equal(t, CashTicker, row.Ticker)
	assert.Equal(t, 2500.75, row.MarketValue)
	assert.Equal(t, 1.0, row.MarkPrice)
}

func TestCryptoRow(t *testing.T) {
	holding := robinhood.CryptoHolding{
		Quantity: "0.5",
	}
	holding.Currency.Code = "BTC"
	holding.CostBases = []struct {
		DirectCostBasis string `json:"direct_cost_basis"`
	}{
		{DirectCostBasis: "15000.00"},
	}

	row := CryptoRow("INDIVIDUAL", holding)

	assert.Equal(t, TypeCrypto, row.Type)
	assert.Equal(t, "BTC", row.Ticker)
	assert.Equal(t, 0.5, row.Quantity)
	assert.Equal(t, 15000.0, row.MarketValue)
	assert.Equal(t, 30000.0, row.MarkPrice)
}
