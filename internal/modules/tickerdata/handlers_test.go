package tickerdata

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetafolio/thetafolio/internal/clients/yahoo"
)

func chartBars(n int) []yahoo.HistoricalPrice {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]yahoo.HistoricalPrice, n)
	for i := range bars {
		bars[i] = yahoo.HistoricalPrice{
			Date:  start.AddDate(0, 0, i),
			Close: 100 + float64(i),
		}
	}
	return bars
}

func newChartRouter(history *fakeHistory) *chi.Mux {
	service, _ := newTestService(&fakeBrokerage{}, history)
	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func TestHandleGetChart(t *testing.T) {
	router := newChartRouter(&fakeHistory{bars: chartBars(60)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/aapl", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Symbol     string    `json:"symbol"`
		Dates      []string  `json:"dates"`
		Closes     []float64 `json:"closes"`
		RSI        []float64 `json:"rsi"`
		EMA        []float64 `json:"ema"`
		LatestEMA  *float64  `json:"latestEma"`
		Volatility float64   `json:"volatility"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "AAPL", resp.Symbol)
	require.Len(t, resp.Closes, 60)
	assert.Len(t, resp.Dates, 60)
	assert.Equal(t, "2024-01-02", resp.Dates[0])
	assert.Equal(t, 100.0, resp.Closes[0])

	// Series align with the close series
	require.Len(t, resp.RSI, 60)
	require.Len(t, resp.EMA, 60)
	// Strictly rising closes pin the RSI at 100 once warmed up
	assert.InDelta(t, 100.0, resp.RSI[59], 0.01)
	assert.Zero(t, resp.RSI[0])

	// The summary EMA is the final point of the series
	require.NotNil(t, resp.LatestEMA)
	assert.InDelta(t, resp.EMA[59], *resp.LatestEMA, 1e-9)
	// Rising closes still move day to day
	assert.Greater(t, resp.Volatility, 0.0)
}

func TestHandleGetChart_ShortSeriesFallsBackToAverage(t *testing.T) {
	// 30 bars cannot seed a 50-period EMA
	router := newChartRouter(&fakeHistory{bars: chartBars(30)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/AAPL", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		EMA       []float64 `json:"ema"`
		LatestEMA *float64  `json:"latestEma"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Empty(t, resp.EMA)
	// Closes 100..129 average to 114.5
	require.NotNil(t, resp.LatestEMA)
	assert.InDelta(t, 114.5, *resp.LatestEMA, 1e-9)
}

func TestHandleGetChart_NoData(t *testing.T) {
	router := newChartRouter(&fakeHistory{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/ZZZZ", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetChart_UpstreamFailure(t *testing.T) {
	router := newChartRouter(&fakeHistory{barsErr: errors.New("rate limited")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/AAPL", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
