package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thetafolio/thetafolio/internal/modules/market_hours"
)

// Tuesday 2024-01-16 10:00 EST, market open
var duringHours = time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)

// Tuesday 2024-01-16 20:00 EST, market closed
var afterHours = time.Date(2024, 1, 17, 1, 0, 0, 0, time.UTC)

func newTestPolicy() *Policy {
	hours := market_hours.NewService(market_hours.DefaultSession("America/New_York"))
	return NewPolicy(DefaultTTLConfig(), hours)
}

func TestPolicy_Fresh(t *testing.T) {
	policy := newTestPolicy()
	now := time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		capturedAt time.Time
		ttl        time.Duration
		expected   bool
	}{
		{"well within ttl", now.Add(-time.Minute), 5 * time.Minute, true},
		{"age exactly equal to ttl", now.Add(-5 * time.Minute), 5 * time.Minute, true},
		{"one nanosecond past ttl", now.Add(-5*time.Minute - time.Nanosecond), 5 * time.Minute, false},
		{"future capture time", now.Add(time.Minute), 5 * time.Minute, true},
		{"zero capture time", time.Time{}, 5 * time.Minute, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.Fresh(now, tc.capturedAt, tc.ttl))
		})
	}
}

func TestPolicy_FreshEntry(t *testing.T) {
	policy := newTestPolicy()
	now := duringHours

	assert.False(t, policy.FreshEntry(now, nil, CategoryPrice))

	fresh := &Entry{Timestamp: now.Add(-time.Minute)}
	assert.True(t, policy.FreshEntry(now, fresh, CategoryPrice))
	assert.True(t, policy.FreshEntry(now, fresh, CategoryFundamentals))

	old := &Entry{Timestamp: now.Add(-time.Hour)}
	assert.False(t, policy.FreshEntry(now, old, CategoryPrice))
	assert.True(t, policy.FreshEntry(now, old, CategoryFundamentals))

	stale := &Entry{}
	assert.False(t, policy.FreshEntry(now, stale, CategoryFundamentals))
}

func TestPolicy_SnapshotTTL(t *testing.T) {
	policy := newTestPolicy()

	assert.Equal(t, 5*time.Minute, policy.SnapshotTTL(duringHours))
	assert.Equal(t, 6*time.Hour, policy.SnapshotTTL(afterHours))

	// Boundary instants are in-hours
	open := time.Date(2024, 1, 16, 14, 30, 0, 0, time.UTC)
	close := time.Date(2024, 1, 16, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, 5*time.Minute, policy.SnapshotTTL(open))
	assert.Equal(t, 5*time.Minute, policy.SnapshotTTL(close))
}

func TestPolicy_TTLForKey(t *testing.T) {
	policy := newTestPolicy()

	testCases := []struct {
		key      string
		expected time.Duration
	}{
		{"latest_price_AAPL", 5 * time.Minute},
		{"option_market_data_abc123", 5 * time.Minute},
		{"fundamentals_MSFT", 24 * time.Hour},
		{"instrument_https___api", 7 * 24 * time.Hour},
		{"daily_closes_TSLA_365", 24 * time.Hour},
		{"price_changes_NVDA", 24 * time.Hour},
		{"revenue_changes_AMD", 7 * 24 * time.Hour},
		{"something_unknown", 24 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.TTLForKey(afterHours, tc.key))
		})
	}

	// Snapshot keys follow the market clock
	assert.Equal(t, 5*time.Minute, policy.TTLForKey(duringHours, "portfolio_snapshot_INDIVIDUAL"))
	assert.Equal(t, 6*time.Hour, policy.TTLForKey(afterHours, "portfolio_snapshot_INDIVIDUAL"))
}
