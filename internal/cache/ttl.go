package cache

import (
	"strings"
	"time"

	"github.com/thetafolio/thetafolio/internal/modules/market_hours"
)

// Category names a class of cached data with a shared freshness horizon.
type Category string

const (
	CategoryPrice            Category = "price"
	CategoryOptionMarketData Category = "option_market_data"
	CategoryFundamentals     Category = "fundamentals"
	CategoryInstrument       Category = "instrument"
	CategoryHistorical       Category = "historical"
	CategoryRevenue          Category = "revenue"
	CategorySnapshot         Category = "snapshot"
)

// TTLConfig holds the freshness horizon per category plus the two
// portfolio snapshot horizons the market clock switches between.
type TTLConfig struct {
	Price              time.Duration
	OptionMarketData   time.Duration
	Fundamentals       time.Duration
	Instrument         time.Duration
	Historical         time.Duration
	Revenue            time.Duration
	SnapshotInHours    time.Duration
	SnapshotAfterHours time.Duration
	Default            time.Duration
}

// DefaultTTLConfig returns the standard horizons: quotes go stale in
// minutes, reference data in days.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Price:              5 * time.Minute,
		OptionMarketData:   5 * time.Minute,
		Fundamentals:       24 * time.Hour,
		Instrument:         7 * 24 * time.Hour,
		Historical:         24 * time.Hour,
		Revenue:            7 * 24 * time.Hour,
		SnapshotInHours:    5 * time.Minute,
		SnapshotAfterHours: 6 * time.Hour,
		Default:            24 * time.Hour,
	}
}

// keyCategories maps cache key prefixes (the source name passed to Key)
// to their category.
var keyCategories = map[string]Category{
	"latest_price":       CategoryPrice,
	"option_market_data": CategoryOptionMarketData,
	"fundamentals":       CategoryFundamentals,
	"instrument":         CategoryInstrument,
	"company_name":       CategoryInstrument,
	"daily_closes":       CategoryHistorical,
	"price_changes":      CategoryHistorical,
	"revenue_changes":    CategoryRevenue,
	"portfolio_snapshot": CategorySnapshot,
}

// Policy decides whether cached entries are still fresh. Snapshot
// freshness depends on the market clock: a short horizon while the
// market is open, a long one otherwise.
type Policy struct {
	ttl   TTLConfig
	hours *market_hours.Service
}

// NewPolicy creates a policy over the given horizons and market clock.
func NewPolicy(ttl TTLConfig, hours *market_hours.Service) *Policy {
	return &Policy{ttl: ttl, hours: hours}
}

// Fresh reports whether a value captured at capturedAt is still usable
// at now. An age exactly equal to the TTL still counts as fresh. A zero
// capture time is always stale.
func (p *Policy) Fresh(now, capturedAt time.Time, ttl time.Duration) bool {
	if capturedAt.IsZero() {
		return false
	}
	return now.Sub(capturedAt) <= ttl
}

// FreshEntry is Fresh applied to a cache entry under a category horizon.
func (p *Policy) FreshEntry(now time.Time, entry *Entry, category Category) bool {
	if entry == nil {
		return false
	}
	return p.Fresh(now, entry.Timestamp, p.TTLFor(now, category))
}

// TTLFor returns the freshness horizon for a category at now.
func (p *Policy) TTLFor(now time.Time, category Category) time.Duration {
	switch category {
	case CategoryPrice:
		return p.ttl.Price
	case CategoryOptionMarketData:
		return p.ttl.OptionMarketData
	case CategoryFundamentals:
		return p.ttl.Fundamentals
	case CategoryInstrument:
		return p.ttl.Instrument
	case CategoryHistorical:
		return p.ttl.Historical
	case CategoryRevenue:
		return p.ttl.Revenue
	case CategorySnapshot:
		return p.SnapshotTTL(now)
	default:
		return p.ttl.Default
	}
}

// TTLForKey returns the freshness horizon for a stored key at now,
// resolved through the key's source-name prefix. Unknown prefixes get
// the default horizon.
func (p *Policy) TTLForKey(now time.Time, key string) time.Duration {
	for prefix, category := range keyCategories {
		if strings.HasPrefix(key, prefix) {
			return p.TTLFor(now, category)
		}
	}
	return p.ttl.Default
}

// SnapshotTTL returns the portfolio snapshot horizon in effect at now.
func (p *Policy) SnapshotTTL(now time.Time) time.Duration {
	if p.hours.IsOpen(now) {
		return p.ttl.SnapshotInHours
	}
	return p.ttl.SnapshotAfterHours
}
