package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// SetBaseURL overrides the API host, used by tests
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// get fetches a URL with browser-like headers and returns the body
func (c *Client) get(rawURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects non-browser user agents
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// GetHistoricalPrices fetches daily OHLCV bars between start and end
// via the v8 chart API.
func (c *Client) GetHistoricalPrices(symbol string, start, end time.Time) ([]HistoricalPrice, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))

	return c.fetchChart(symbol, params)
}

// GetHistoricalRange fetches daily OHLCV bars for a named range such as
// "1mo" or "1y".
func (c *Client) GetHistoricalRange(symbol, period string) ([]HistoricalPrice, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", period)

	return c.fetchChart(symbol, params)
}

func (c *Client) fetchChart(symbol string, params url.Values) ([]HistoricalPrice, error) {
	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	body, err := c.get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data for %s: %w", symbol, err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", symbol, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error for %s: %v", symbol, result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	timestamps := chartData.Timestamp
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in chart response")
		return []HistoricalPrice{}, nil
	}

	quote := chartData.Indicators.Quote[0]

	var adjCloseData []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]HistoricalPrice, 0, len(timestamps))
	for i := range timestamps {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		// Yahoo marks halted or missing bars with all-zero values
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adjClose := quote.Close[i]
		if i < len(adjCloseData) && adjCloseData[i] != 0 {
			adjClose = adjCloseData[i]
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(timestamps[i], 0),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			AdjClose: adjClose,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// GetRevenueHistory fetches reported total revenue per period from the
// quoteSummary income statement modules. Periods come back oldest first.
func (c *Client) GetRevenueHistory(symbol string, quarterly bool) ([]RevenueEntry, error) {
	module := "incomeStatementHistory"
	if quarterly {
		module = "incomeStatementHistoryQuarterly"
	}

	params := url.Values{}
	params.Set("modules", module)

	reqURL := c.baseURL + "/v10/finance/quoteSummary/" + url.PathEscape(symbol) + "?" + params.Encode()

	body, err := c.get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revenue history for %s: %w", symbol, err)
	}

	var result quoteSummaryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse revenue response for %s: %w", symbol, err)
	}

	if result.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error for %s: %v", symbol, result.QuoteSummary.Error)
	}

	if len(result.QuoteSummary.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No revenue history returned")
		return []RevenueEntry{}, nil
	}

	statements := result.QuoteSummary.Result[0].IncomeStatementHistory.IncomeStatementHistory
	if quarterly {
		statements = result.QuoteSummary.Result[0].IncomeStatementHistoryQuarterly.IncomeStatementHistory
	}

	entries := make([]RevenueEntry, 0, len(statements))
	// Yahoo returns newest first
	for i := len(statements) - 1; i >= 0; i-- {
		s := statements[i]
		if s.TotalRevenue.Raw == 0 {
			continue
		}
		entries = append(entries, RevenueEntry{
			EndDate:      time.Unix(int64(s.EndDate.Raw), 0),
			TotalRevenue: s.TotalRevenue.Raw,
		})
	}

	return entries, nil
}
