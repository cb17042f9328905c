package enrichment

// Position type tags
const (
	TypeStock  = "stock"
	TypeOption = "option"
	TypeCash   = "cash"
	TypeCrypto = "crypto"
)

// CashTicker is the synthetic ticker for the cash row
const CashTicker = "USD Cash"

// Position is one fully enriched dashboard row. Fields that could not
// be sourced carry their zero value, the row is still emitted.
type Position struct {
	Type          string  `json:"type"`
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name,omitempty"`
	Account       string  `json:"account"`
	Side          string  `json:"side,omitempty"` // long or short, options only
	Quantity      float64 `json:"quantity"`
	AvgCost       float64 `json:"avgCost"`
	MarkPrice     float64 `json:"markPrice"`
	MarketValue   float64 `json:"marketValue"`
	CostBasis     float64 `json:"costBasis"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
	ReturnPct     float64 `json:"returnPct"`
	EarnedPremium float64 `json:"earnedPremium"`

	// Reference and performance context, stocks only
	Sector              string   `json:"sector,omitempty"`
	PERatio             float64  `json:"peRatio,omitempty"`
	RangePct52Week      float64  `json:"rangePct52Week,omitempty"`
	OneWeekChangePct    float64  `json:"oneWeekChangePct,omitempty"`
	OneMonthChangePct   float64  `json:"oneMonthChangePct,omitempty"`
	ThreeMonthChangePct float64  `json:"threeMonthChangePct,omitempty"`
	OneYearChangePct    float64  `json:"oneYearChangePct,omitempty"`
	RevenueYearlyPct    float64  `json:"revenueYearlyPct,omitempty"`
	RevenueQuarterlyPct float64  `json:"revenueQuarterlyPct,omitempty"`
	RSI                 *float64 `json:"rsi,omitempty"`
	PELow52Week         float64  `json:"peLow52Week,omitempty"`
	PEHigh52Week        float64  `json:"peHigh52Week,omitempty"`
	PSLow52Week         float64  `json:"psLow52Week,omitempty"`
	PSHigh52Week        float64  `json:"psHigh52Week,omitempty"`

	// Contract identity, options only
	Strike     float64 `json:"strike,omitempty"`
	OptionType string  `json:"optionType,omitempty"`
	Expiry     string  `json:"expiry,omitempty"`
}
