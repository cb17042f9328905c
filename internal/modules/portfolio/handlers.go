package portfolio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/thetafolio/thetafolio/internal/modules/premium"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service   *Service
	stateRepo *premium.Repository
	log       zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, stateRepo *premium.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		stateRepo: stateRepo,
		log:       log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio/all", h.HandleGetCombined)
	r.Get("/portfolio/{account}", h.HandleGetPortfolio)
	r.Get("/accounts", h.HandleGetAccounts)
	r.Get("/premiums/{account}", h.HandleGetPremiums)
}

// HandleGetPortfolio returns the snapshot for one account.
// ?refresh=true bypasses the snapshot cache.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	force := r.URL.Query().Get("refresh") == "true"

	snapshot, err := h.service.GetSnapshot(r.Context(), account, force)
	if err != nil {
		if errors.Is(err, ErrUnknownAccount) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("account", account).Msg("Failed to build snapshot")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// HandleGetCombined returns the merged all-accounts view
func (h *Handler) HandleGetCombined(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetCombined(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build combined view")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// HandleGetAccounts returns the configured account names
func (h *Handler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": h.service.AccountNames(),
	})
}

// HandleGetPremiums returns the raw premium-by-ticker totals for one
// account, straight from the persisted run state.
func (h *Handler) HandleGetPremiums(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	if _, ok := h.service.accounts[account]; !ok {
		h.writeError(w, http.StatusNotFound, "unknown account: "+account)
		return
	}

	state := h.stateRepo.Load(account)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":   account,
		"premiums":  state.Premiums,
		"asOf":      state.LastOrderMark,
		"positions": state.LastPositionFetch,
	})
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
