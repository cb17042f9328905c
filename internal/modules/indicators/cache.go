package indicators

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/pkg/formulas"
)

// Schema is the indicator cache table, one row per (symbol, metric, period).
const Schema = `
CREATE TABLE IF NOT EXISTS calculations (
	symbol TEXT NOT NULL,
	metric_type TEXT NOT NULL,
	period INTEGER NOT NULL,
	value TEXT NOT NULL,
	calculated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (symbol, metric_type, period)
);
`

// Cache provides sqlite-backed caching for per-symbol indicator
// calculations with a 24 hour horizon.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a new indicator cache over an open database
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "indicator_cache").Logger(),
	}
}

// GetRSI retrieves RSI from cache or calculates and stores it
// Args:
//
//	symbol: Security symbol
//	prices: Daily closing prices
//	period: RSI period (typically 14)
//
// Returns:
//
//	RSI value or nil if insufficient data
func (c *Cache) GetRSI(ctx context.Context, symbol string, prices []float64, period int) *float64 {
	if cached := c.getCachedValue(ctx, symbol, "rsi", period); cached != nil {
		return cached
	}

	rsi := formulas.CalculateRSI(prices, period)
	if rsi == nil {
		return nil
	}

	c.setCachedValue(ctx, symbol, "rsi", period, *rsi)
	return rsi
}

// ValuationRange is a ratio's estimated 52-week band. The band scales
// the current ratio by the price extremes, which assumes the
// denominator held roughly constant over the year.
type ValuationRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// GetPERange retrieves the estimated 52-week P/E band from cache or
// derives and stores it. Returns nil when the inputs cannot support an
// estimate.
func (c *Cache) GetPERange(ctx context.Context, symbol string, peRatio, price, low52, high52 float64) *ValuationRange {
	return c.getRatioRange(ctx, symbol, "pe_range", peRatio, price, low52, high52)
}

// GetPSRange retrieves the estimated 52-week P/S band from cache or
// derives and stores it, same band math over the price-to-sales ratio.
func (c *Cache) GetPSRange(ctx context.Context, symbol string, psRatio, price, low52, high52 float64) *ValuationRange {
	return c.getRatioRange(ctx, symbol, "ps_range", psRatio, price, low52, high52)
}

func (c *Cache) getRatioRange(ctx context.Context, symbol, metric string, ratio, price, low52, high52 float64) *ValuationRange {
	if ratio <= 0 || price <= 0 || low52 <= 0 || high52 <= 0 {
		return nil
	}

	if cached := c.getCachedJSON(ctx, symbol, metric, 52); cached != nil {
		var vr ValuationRange
		if err := json.Unmarshal([]byte(*cached), &vr); err == nil {
			return &vr
		}
	}

	vr := ValuationRange{
		Low:  ratio * low52 / price,
		High: ratio * high52 / price,
	}
	c.setCachedValue(ctx, symbol, metric, 52, vr)
	return &vr
}

// getCachedValue returns a cached float metric younger than 24 hours
func (c *Cache) getCachedValue(ctx context.Context, symbol, metricType string, period int) *float64 {
	raw := c.getCachedJSON(ctx, symbol, metricType, period)
	if raw == nil {
		return nil
	}

	var value float64
	if err := json.Unmarshal([]byte(*raw), &value); err != nil {
		return nil
	}
	return &value
}

// getCachedJSON returns the raw cached value younger than 24 hours
func (c *Cache) getCachedJSON(ctx context.Context, symbol, metricType string, period int) *string {
	query := `
		SELECT value, calculated_at
		FROM calculations
		WHERE symbol = ? AND metric_type = ? AND period = ?
		ORDER BY calculated_at DESC
		LIMIT 1
	`

	var value string
	var calculatedAt time.Time
	err := c.db.QueryRowContext(ctx, query, symbol, metricType, period).Scan(&value, &calculatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Error().
				Err(err).
				Str("symbol", symbol).
				Str("metric_type", metricType).
				Int("period", period).
				Msg("Failed to get cached value")
		}
		return nil
	}

	if time.Since(calculatedAt) > 24*time.Hour {
		return nil
	}

	return &value
}

func (c *Cache) setCachedValue(ctx context.Context, symbol, metricType string, period int, value interface{}) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		c.log.Error().
			Err(err).
			Str("symbol", symbol).
			Str("metric_type", metricType).
			Msg("Failed to marshal value")
		return
	}

	query := `
		INSERT INTO calculations (symbol, metric_type, period, value, calculated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, metric_type, period)
		DO UPDATE SET value = excluded.value, calculated_at = excluded.calculated_at
	`

	_, err = c.db.ExecContext(ctx, query, symbol, metricType, period, string(jsonData), time.Now())
	if err != nil {
		c.log.Error().
			Err(err).
			Str("symbol", symbol).
			Str("metric_type", metricType).
			Int("period", period).
			Msg("Failed to cache value")
	}
}
