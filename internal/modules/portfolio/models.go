package portfolio

import (
	"time"

	"github.com/thetafolio/thetafolio/internal/modules/enrichment"
)

// CombinedAccount is the pseudo account name of the all-accounts view.
const CombinedAccount = "all"

// Summary is the account-level rollup shown above the positions table.
type Summary struct {
	TotalEquity    float64 `json:"totalEquity"`
	CryptoEquity   float64 `json:"cryptoEquity"`
	ChangeTodayAbs float64 `json:"changeTodayAbs"`
	ChangeTodayPct float64 `json:"changeTodayPct"`
	TotalPnl       float64 `json:"totalPnl"`
	TotalTickers   int     `json:"totalTickers"`
	EarnedPremium  float64 `json:"earnedPremium"`
}

// Snapshot is one fully assembled portfolio view: summary, enriched
// positions, and the time it was captured.
type Snapshot struct {
	Account   string                 `json:"account"`
	Summary   Summary                `json:"summary"`
	Positions []*enrichment.Position `json:"positions"`
	Timestamp time.Time              `json:"timestamp"`
}
