package tickerdata

// Fundamentals is the parsed per-symbol reference data. Missing wire
// fields parse to zero values rather than errors.
type Fundamentals struct {
	Symbol      string  `json:"symbol"`
	PERatio     float64 `json:"pe_ratio"`
	High52Weeks float64 `json:"high_52_weeks"`
	Low52Weeks  float64 `json:"low_52_weeks"`
	MarketCap   float64 `json:"market_cap"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
}

// OptionQuote is the parsed market view of one option contract
type OptionQuote struct {
	MarkPrice float64 `json:"mark_price"`
	OCCSymbol string  `json:"occ_symbol"`
}

// PriceChanges holds trailing price performance percentages
type PriceChanges struct {
	OneWeekPct    float64 `json:"one_week_pct"`
	OneMonthPct   float64 `json:"one_month_pct"`
	ThreeMonthPct float64 `json:"three_month_pct"`
	OneYearPct    float64 `json:"one_year_pct"`
}

// RevenueChanges holds year-over-year and quarter-over-quarter revenue
// growth percentages plus the latest reported annual revenue
type RevenueChanges struct {
	YearlyPct    float64 `json:"yearly_pct"`
	QuarterlyPct float64 `json:"quarterly_pct"`
	LatestAnnual float64 `json:"latest_annual"`
}
