package robinhood

import "encoding/json"

// The brokerage API returns every numeric field as a string. Wire types
// keep them as strings so one bad field never fails a whole decode;
// callers parse at the point of use.

// listPage is the paginated envelope used by every list endpoint.
type listPage struct {
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// StockPosition is one open equity position.
type StockPosition struct {
	InstrumentURL           string `json:"instrument"`
	AccountNumber           string `json:"account_number"`
	Quantity                string `json:"quantity"`
	AverageBuyPrice         string `json:"average_buy_price"`
	IntradayAverageBuyPrice string `json:"intraday_average_buy_price"`
}

// OptionPosition is one open option position.
type OptionPosition struct {
	ID           string `json:"id"`
	OptionID     string `json:"option_id"`
	ChainSymbol  string `json:"chain_symbol"`
	Type         string `json:"type"` // long or short
	Quantity     string `json:"quantity"`
	AveragePrice string `json:"average_price"`
}

// OptionOrderLeg is one leg of an option order.
type OptionOrderLeg struct {
	Side           string `json:"side"`            // buy or sell
	PositionEffect string `json:"position_effect"` // open or close
	OptionType     string `json:"option_type"`     // call or put
	StrikePrice    string `json:"strike_price"`
}

// OptionOrder is one option order as returned by the orders feed.
type OptionOrder struct {
	ID                 string           `json:"id"`
	ChainSymbol        string           `json:"chain_symbol"`
	State              string           `json:"state"`
	UpdatedAt          string           `json:"updated_at"`
	Quantity           string           `json:"quantity"`
	NetAmount          string           `json:"net_amount"`
	NetAmountDirection string           `json:"net_amount_direction"` // credit or debit
	Legs               []OptionOrderLeg `json:"legs"`
}

// PortfolioProfile is the account-level equity summary.
type PortfolioProfile struct {
	Equity              string `json:"equity"`
	ExtendedHoursEquity string `json:"extended_hours_equity"`
	EquityPreviousClose string `json:"equity_previous_close"`
}

// AccountProfile is the account-level cash summary.
type AccountProfile struct {
	Cash              string `json:"cash"`
	UnclearedDeposits string `json:"uncleared_deposits"`
}

// Instrument resolves an instrument URL to a ticker symbol.
type Instrument struct {
	Symbol     string `json:"symbol"`
	SimpleName string `json:"simple_name"`
	Name       string `json:"name"`
}

// Fundamentals is the per-symbol reference data endpoint.
type Fundamentals struct {
	PERatio     string `json:"pe_ratio"`
	High52Weeks string `json:"high_52_weeks"`
	Low52Weeks  string `json:"low_52_weeks"`
	MarketCap   string `json:"market_cap"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
}

// Quote is the latest trade price for a symbol.
type Quote struct {
	Symbol                      string `json:"symbol"`
	LastTradePrice              string `json:"last_trade_price"`
	LastExtendedHoursTradePrice string `json:"last_extended_hours_trade_price"`
}

// OptionMarketData is the live market view of one option contract.
type OptionMarketData struct {
	MarkPrice string `json:"mark_price"`
	OCCSymbol string `json:"occ_symbol"`
}

// CryptoHolding is one crypto currency position.
type CryptoHolding struct {
	Currency struct {
		Code string `json:"code"`
	} `json:"currency"`
	Quantity  string `json:"quantity"`
	CostBases []struct {
		DirectCostBasis string `json:"direct_cost_basis"`
	} `json:"cost_bases"`
}
