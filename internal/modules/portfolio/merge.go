package portfolio

import (
	"sort"
	"time"

	"github.com/thetafolio/thetafolio/internal/modules/enrichment"
	"github.com/thetafolio/thetafolio/pkg/formulas"
)

// mergeSnapshots folds per-account snapshots into the combined view.
// Stock rows with the same ticker merge with a weighted-average cost,
// option and crypto rows stay account-distinct, cash rows sum into one.
func mergeSnapshots(snapshots []*Snapshot, now time.Time) *Snapshot {
	stocksByTicker := make(map[string]*enrichment.Position)
	var stockOrder []string
	var options []*enrichment.Position
	var crypto []*enrichment.Position
	seenCrypto := make(map[string]struct{})
	var cash float64

	for _, snapshot := range snapshots {
		for _, row := range snapshot.Positions {
			switch row.Type {
			case enrichment.TypeStock:
				merged, ok := stocksByTicker[row.Ticker]
				if !ok {
					clone := *row
					clone.Account = CombinedAccount
					stocksByTicker[row.Ticker] = &clone
					stockOrder = append(stockOrder, row.Ticker)
					continue
				}
				merged.Quantity += row.Quantity
				merged.MarketValue += row.MarketValue
				merged.CostBasis += row.CostBasis
				merged.UnrealizedPnl += row.UnrealizedPnl
				merged.EarnedPremium += row.EarnedPremium
			case enrichment.TypeOption:
				options = append(options, row)
			case enrichment.TypeCash:
				cash += row.MarketValue
			case enrichment.TypeCrypto:
				// Crypto holdings are account-agnostic upstream and
				// appear in every per-account snapshot, keep one copy.
				if _, ok := seenCrypto[row.Ticker]; ok {
					continue
				}
				seenCrypto[row.Ticker] = struct{}{}
				crypto = append(crypto, row)
			}
		}
	}

	positions := make([]*enrichment.Position, 0, len(stockOrder)+len(options)+len(crypto)+1)
	for _, ticker := range stockOrder {
		row := stocksByTicker[ticker]
		if row.Quantity != 0 {
			row.AvgCost = row.CostBasis / row.Quantity
		}
		row.ReturnPct = formulas.PercentChange(row.CostBasis, row.MarketValue)
		positions = append(positions, row)
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].MarketValue > positions[j].MarketValue
	})
	positions = append(positions, options...)
	positions = append(positions, enrichment.CashRow(CombinedAccount, cash))
	positions = append(positions, crypto...)

	return &Snapshot{
		Account:   CombinedAccount,
		Summary:   combineSummaries(snapshots, positions),
		Positions: positions,
		Timestamp: now,
	}
}

// combineSummaries sums per-account summaries. Brokerage equity sums
// directly, the shared crypto base is re-added once from the deduped
// rows. The combined day change percentage is measured against the
// summed prior-day base, recovered as equity minus the day's absolute
// change.
func combineSummaries(snapshots []*Snapshot, positions []*enrichment.Position) Summary {
	var combined Summary
	var prevBase float64
	for _, snapshot := range snapshots {
		brokerageEquity := snapshot.Summary.TotalEquity - snapshot.Summary.CryptoEquity
		combined.TotalEquity += brokerageEquity
		combined.TotalPnl += snapshot.Summary.TotalPnl
		combined.EarnedPremium += snapshot.Summary.EarnedPremium
		combined.ChangeTodayAbs += snapshot.Summary.ChangeTodayAbs
		prevBase += brokerageEquity - snapshot.Summary.ChangeTodayAbs
	}

	tickers := make(map[string]struct{})
	for _, row := range positions {
		switch row.Type {
		case enrichment.TypeStock, enrichment.TypeOption:
			tickers[row.Ticker] = struct{}{}
		case enrichment.TypeCrypto:
			combined.CryptoEquity += row.MarketValue
		}
	}
	combined.TotalTickers = len(tickers)
	combined.TotalEquity += combined.CryptoEquity
	prevBase += combined.CryptoEquity
	if prevBase > 0 {
		combined.ChangeTodayPct = combined.ChangeTodayAbs / prevBase * 100
	}
	return combined
}
