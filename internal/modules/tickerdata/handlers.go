package tickerdata

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/pkg/formulas"
)

const (
	chartRSIPeriod = 14
	chartEMALength = 50
)

// Handler serves chart data for the per-ticker detail page
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new ticker data handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// RegisterRoutes registers all chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/charts/{symbol}", h.HandleGetChart)
}

type chartResponse struct {
	Symbol     string    `json:"symbol"`
	Dates      []string  `json:"dates"`
	Closes     []float64 `json:"closes"`
	RSI        []float64 `json:"rsi"`
	EMA        []float64 `json:"ema"`
	LatestEMA  *float64  `json:"latestEma,omitempty"`
	Volatility float64   `json:"volatility"`
}

// HandleGetChart returns a year of daily closes with RSI(14) and
// EMA(50) series aligned to the same dates, plus a latest EMA value
// and the annualized volatility of the series
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	bars, err := h.service.DailyBars(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch chart bars")
		h.writeError(w, http.StatusBadGateway, "no chart data for "+symbol)
		return
	}
	if len(bars) == 0 {
		h.writeError(w, http.StatusNotFound, "no chart data for "+symbol)
		return
	}

	resp := chartResponse{
		Symbol: symbol,
		Dates:  make([]string, len(bars)),
		Closes: make([]float64, len(bars)),
	}
	for i, bar := range bars {
		resp.Dates[i] = bar.Date.Format(time.DateOnly)
		resp.Closes[i] = bar.Close
	}
	resp.RSI = formulas.CalculateRSISeries(resp.Closes, chartRSIPeriod)
	resp.EMA = formulas.CalculateEMASeries(resp.Closes, chartEMALength)
	resp.LatestEMA = formulas.CalculateEMA(resp.Closes, chartEMALength)
	resp.Volatility = formulas.AnnualizedVolatility(resp.Closes)

	h.writeJSON(w, http.StatusOK, resp)
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
