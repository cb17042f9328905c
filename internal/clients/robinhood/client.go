package robinhood

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client for the brokerage REST API
type Client struct {
	baseURL   string
	nummusURL string
	client    *http.Client
	log       zerolog.Logger
	token     string
}

// NewClient creates a new brokerage API client
func NewClient(baseURL, nummusURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		nummusURL: strings.TrimRight(nummusURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "robinhood").Logger(),
	}
}

// SetToken sets the bearer token for authenticated requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// get makes a GET request and returns the raw response body
func (c *Client) get(rawURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s failed with status %d: %s", rawURL, resp.StatusCode, string(body))
	}

	return body, nil
}

// getJSON makes a GET request and decodes the body into out
func (c *Client) getJSON(rawURL string, out interface{}) error {
	body, err := c.get(rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", rawURL, err)
	}
	return nil
}

// getList walks every page of a paginated list endpoint and returns the
// raw result objects.
func (c *Client) getList(rawURL string) ([]json.RawMessage, error) {
	var results []json.RawMessage

	next := rawURL
	for next != "" {
		var page listPage
		if err := c.getJSON(next, &page); err != nil {
			return nil, err
		}
		results = append(results, page.Results...)

		if page.Next == nil {
			break
		}
		next = *page.Next
	}

	return results, nil
}

// decodeEach unmarshals each raw list element into a fresh T. Elements
// that fail to decode are logged and skipped rather than failing the
// whole list.
func decodeEach[T any](c *Client, raws []json.RawMessage, what string) []T {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			c.log.Warn().Err(err).Str("object", what).Msg("Skipping undecodable list element")
			continue
		}
		out = append(out, item)
	}
	return out
}

// endpoint builds a URL on the main API host with query parameters
func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// GetStockPositions returns the open equity positions for an account
func (c *Client) GetStockPositions(accountNumber string) ([]StockPosition, error) {
	params := url.Values{}
	params.Set("nonzero", "true")
	params.Set("account_number", accountNumber)

	raws, err := c.getList(c.endpoint("/positions/", params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock positions: %w", err)
	}
	return decodeEach[StockPosition](c, raws, "stock_position"), nil
}

// GetOptionPositions returns the open option positions for an account
func (c *Client) GetOptionPositions(accountNumber string) ([]OptionPosition, error) {
	params := url.Values{}
	params.Set("nonzero", "true")
	params.Set("account_numbers", accountNumber)

	raws, err := c.getList(c.endpoint("/options/positions/", params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option positions: %w", err)
	}
	return decodeEach[OptionPosition](c, raws, "option_position"), nil
}

// GetOptionOrders returns option orders for an account updated at or
// after since. A zero since fetches the full history.
func (c *Client) GetOptionOrders(accountNumber string, since time.Time) ([]OptionOrder, error) {
	params := url.Values{}
	params.Set("account_numbers", accountNumber)
	if !since.IsZero() {
		params.Set("updated_at[gte]", since.UTC().Format(time.RFC3339))
	}

	raws, err := c.getList(c.endpoint("/options/orders/", params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option orders: %w", err)
	}
	return decodeEach[OptionOrder](c, raws, "option_order"), nil
}

// GetPortfolioProfile returns the equity summary for an account
func (c *Client) GetPortfolioProfile(accountNumber string) (*PortfolioProfile, error) {
	var profile PortfolioProfile
	if err := c.getJSON(c.endpoint("/portfolios/"+accountNumber+"/", nil), &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio profile: %w", err)
	}
	return &profile, nil
}

// GetAccountProfile returns the cash summary for an account
func (c *Client) GetAccountProfile(accountNumber string) (*AccountProfile, error) {
	var profile AccountProfile
	if err := c.getJSON(c.endpoint("/accounts/"+accountNumber+"/", nil), &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch account profile: %w", err)
	}
	return &profile, nil
}

// GetInstrument resolves an instrument URL to its reference record.
// The URL comes from a position payload and is fetched as-is.
func (c *Client) GetInstrument(instrumentURL string) (*Instrument, error) {
	var instrument Instrument
	if err := c.getJSON(instrumentURL, &instrument); err != nil {
		return nil, fmt.Errorf("failed to fetch instrument: %w", err)
	}
	return &instrument, nil
}

// GetInstrumentBySymbol resolves a ticker symbol to its reference record
func (c *Client) GetInstrumentBySymbol(symbol string) (*Instrument, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	raws, err := c.getList(c.endpoint("/instruments/", params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instrument for %s: %w", symbol, err)
	}

	items := decodeEach[Instrument](c, raws, "instrument")
	if len(items) == 0 {
		return nil, fmt.Errorf("no instrument returned for symbol %s", symbol)
	}
	return &items[0], nil
}

// GetFundamentals returns reference data for a symbol
func (c *Client) GetFundamentals(symbol string) (*Fundamentals, error) {
	var fundamentals Fundamentals
	if err := c.getJSON(c.endpoint("/fundamentals/"+url.PathEscape(symbol)+"/", nil), &fundamentals); err != nil {
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", symbol, err)
	}
	return &fundamentals, nil
}

// GetQuote returns the latest trade prices for a symbol
func (c *Client) GetQuote(symbol string) (*Quote, error) {
	var quote Quote
	if err := c.getJSON(c.endpoint("/quotes/"+url.PathEscape(symbol)+"/", nil), &quote); err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	return &quote, nil
}

// GetOptionMarketData returns the live market view for an option contract
func (c *Client) GetOptionMarketData(optionID string) (*OptionMarketData, error) {
	params := url.Values{}
	params.Set("instruments", c.baseURL+"/options/instruments/"+optionID+"/")

	raws, err := c.getList(c.endpoint("/marketdata/options/", params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option market data for %s: %w", optionID, err)
	}

	items := decodeEach[OptionMarketData](c, raws, "option_market_data")
	if len(items) == 0 {
		return nil, fmt.Errorf("no market data returned for option %s", optionID)
	}
	return &items[0], nil
}

// GetCryptoHoldings returns the crypto positions on the account
func (c *Client) GetCryptoHoldings() ([]CryptoHolding, error) {
	params := url.Values{}
	params.Set("nonzero", "true")

	raws, err := c.getList(c.nummusURL + "/holdings/?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch crypto holdings: %w", err)
	}
	return decodeEach[CryptoHolding](c, raws, "crypto_holding"), nil
}
