package portfolio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{
	"type", "ticker", "account", "quantity", "avg_cost", "mark_price",
	"market_value", "cost_basis", "unrealized_pnl", "return_pct", "earned_premium",
}

// writeCSV mirrors the positions table to <dir>/<account>_positions.csv,
// one file per account, overwritten on every snapshot build.
func writeCSV(dir, account string, snapshot *Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create csv directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, account+"_positions.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range snapshot.Positions {
		record := []string{
			row.Type,
			row.Ticker,
			row.Account,
			formatFloat(row.Quantity),
			formatFloat(row.AvgCost),
			formatFloat(row.MarkPrice),
			formatFloat(row.MarketValue),
			formatFloat(row.CostBasis),
			formatFloat(row.UnrealizedPnl),
			formatFloat(row.ReturnPct),
			formatFloat(row.EarnedPremium),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
