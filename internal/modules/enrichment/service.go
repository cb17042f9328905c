package enrichment

import (
	"context"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/modules/indicators"
	"github.com/thetafolio/thetafolio/internal/modules/tickerdata"
	"github.com/thetafolio/thetafolio/pkg/formulas"
)

// MarketData is the slice of the ticker data service the enricher uses
type MarketData interface {
	LatestPrice(symbol string) (float64, error)
	InstrumentSymbol(instrumentURL string) (string, error)
	CompanyName(symbol string) (string, error)
	Fundamentals(symbol string) (tickerdata.Fundamentals, error)
	OptionQuote(optionID string) (tickerdata.OptionQuote, error)
	PriceChanges(symbol string) (tickerdata.PriceChanges, error)
	RevenueChanges(symbol string) (tickerdata.RevenueChanges, error)
	DailyCloses(symbol string) ([]float64, error)
}

const rsiPeriod = 14

// Enricher turns raw brokerage positions into dashboard rows. It is
// stateless, every lookup is delegated to the cache-gated data service.
// A failed lookup logs a warning and leaves the field at its default,
// one dead source never sinks the row.
type Enricher struct {
	data       MarketData
	indicators *indicators.Cache
	log        zerolog.Logger
}

// NewEnricher creates a new position enricher
func NewEnricher(data MarketData, indicatorCache *indicators.Cache, log zerolog.Logger) *Enricher {
	return &Enricher{
		data:       data,
		indicators: indicatorCache,
		log:        log.With().Str("component", "enricher").Logger(),
	}
}

// EnrichStock builds the dashboard row for one equity position. Returns
// nil when the position cannot even be named (instrument unresolvable).
func (e *Enricher) EnrichStock(ctx context.Context, account string, pos robinhood.StockPosition, premiums map[string]decimal.Decimal) *Position {
	symbol, err := e.data.InstrumentSymbol(pos.InstrumentURL)
	if err != nil {
		e.log.Warn().Err(err).Str("instrument", pos.InstrumentURL).Msg("Skipping position with unresolvable instrument")
		return nil
	}

	quantity := parseFloat(pos.Quantity)
	avgCost := parseFloat(pos.AverageBuyPrice)

	price, err := e.data.LatestPrice(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No price available, emitting position with zero mark")
	}

	marketValue := price * quantity
	costBasis := avgCost * quantity
	pnl := marketValue - costBasis

	row := &Position{
		Type:          TypeStock,
		Ticker:        symbol,
		Account:       account,
		Quantity:      quantity,
		AvgCost:       avgCost,
		MarkPrice:     price,
		MarketValue:   marketValue,
		CostBasis:     costBasis,
		UnrealizedPnl: pnl,
		ReturnPct:     formulas.PercentChange(costBasis, marketValue),
		EarnedPremium: premiumFor(premiums, symbol),
	}

	e.addStockContext(ctx, row, symbol, price)
	return row
}

// addStockContext fills reference data, trailing performance and
// indicators, each best-effort.
func (e *Enricher) addStockContext(ctx context.Context, row *Position, symbol string, price float64) {
	name, err := e.data.CompanyName(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No company name available")
	} else {
		row.Name = name
	}

	fundamentals, err := e.data.Fundamentals(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No fundamentals available")
	} else {
		row.Sector = fundamentals.Sector
		row.PERatio = fundamentals.PERatio
		row.RangePct52Week = formulas.RangePosition(price, fundamentals.Low52Weeks, fundamentals.High52Weeks)

		if band := e.indicators.GetPERange(ctx, symbol, fundamentals.PERatio, price, fundamentals.Low52Weeks, fundamentals.High52Weeks); band != nil {
			row.PELow52Week = band.Low
			row.PEHigh52Week = band.High
		}
	}

	changes, err := e.data.PriceChanges(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No price history available")
	} else {
		row.OneWeekChangePct = changes.OneWeekPct
		row.OneMonthChangePct = changes.OneMonthPct
		row.ThreeMonthChangePct = changes.ThreeMonthPct
		row.OneYearChangePct = changes.OneYearPct
	}

	revenue, err := e.data.RevenueChanges(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No revenue history available")
	} else {
		row.RevenueYearlyPct = revenue.YearlyPct
		row.RevenueQuarterlyPct = revenue.QuarterlyPct

		if fundamentals.MarketCap > 0 && revenue.LatestAnnual > 0 {
			psRatio := fundamentals.MarketCap / revenue.LatestAnnual
			if band := e.indicators.GetPSRange(ctx, symbol, psRatio, price, fundamentals.Low52Weeks, fundamentals.High52Weeks); band != nil {
				row.PSLow52Week = band.Low
				row.PSHigh52Week = band.High
			}
		}
	}

	closes, err := e.data.DailyCloses(symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("No close series available")
	} else {
		row.RSI = e.indicators.GetRSI(ctx, symbol, closes, rsiPeriod)
	}
}

// EnrichOption builds the dashboard row for one option position.
// Option prices are quoted per share, positions settle per contract of
// one hundred shares.
func (e *Enricher) EnrichOption(ctx context.Context, account string, pos robinhood.OptionPosition, premiums map[string]decimal.Decimal) *Position {
	symbol := pos.ChainSymbol
	quantity := math.Abs(parseFloat(pos.Quantity))
	avgPerShare := math.Abs(parseFloat(pos.AveragePrice)) / 100

	var markPrice float64
	var occSymbol string
	quote, err := e.data.OptionQuote(pos.OptionID)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", symbol).Str("option_id", pos.OptionID).Msg("No option mark available")
	} else {
		markPrice = quote.MarkPrice
		occSymbol = quote.OCCSymbol
	}

	costBasis := avgPerShare * quantity * 100
	marketValue := markPrice * quantity * 100

	// A short position profits when the mark falls and is carried as
	// negative exposure
	pnl := marketValue - costBasis
	if pos.Type == "short" {
		pnl = costBasis - marketValue
		marketValue = -marketValue
		costBasis = -costBasis
	}

	row := &Position{
		Type:          TypeOption,
		Ticker:        symbol,
		Account:       account,
		Side:          pos.Type,
		Quantity:      quantity,
		AvgCost:       avgPerShare,
		MarkPrice:     markPrice,
		MarketValue:   marketValue,
		CostBasis:     costBasis,
		UnrealizedPnl: pnl,
		ReturnPct:     formulas.PercentChange(math.Abs(costBasis), math.Abs(costBasis)+pnl),
		EarnedPremium: premiumFor(premiums, symbol),
	}

	if occSymbol != "" {
		details, err := ParseOCCSymbol(occSymbol)
		if err != nil {
			e.log.Warn().Err(err).Str("occ_symbol", occSymbol).Msg("Unparseable occ symbol")
		} else {
			row.Strike = details.Strike
			row.OptionType = details.OptionType
			row.Expiry = details.Expiry
		}
	}

	return row
}

// CashRow synthesizes the cash position row
func CashRow(account string, cash float64) *Position {
	return &Position{
		Type:        TypeCash,
		Ticker:      CashTicker,
		Account:     account,
		Quantity:    cash,
		MarkPrice:   1,
		MarketValue: cash,
		CostBasis:   cash,
	}
}

// CryptoRow synthesizes a crypto holding row. Holdings are carried at
// cost, no live crypto quotes are fetched.
func CryptoRow(account string, holding robinhood.CryptoHolding) *Position {
	quantity := parseFloat(holding.Quantity)

	var costBasis float64
	for _, cb := range holding.CostBases {
		costBasis += parseFloat(cb.DirectCostBasis)
	}

	var markPrice float64
	if quantity != 0 {
		markPrice = costBasis / quantity
	}

	return &Position{
		Type:        TypeCrypto,
		Ticker:      holding.Currency.Code,
		Account:     account,
		Quantity:    quantity,
		AvgCost:     markPrice,
		MarkPrice:   markPrice,
		MarketValue: costBasis,
		CostBasis:   costBasis,
	}
}

func premiumFor(premiums map[string]decimal.Decimal, symbol string) float64 {
	amount, ok := premiums[symbol]
	if !ok {
		return 0
	}
	value, _ := amount.Float64()
	return value
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
