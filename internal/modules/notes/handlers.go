package notes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles ticker note HTTP requests
type Handler struct {
	repo     *Repository
	accounts map[string]string
	log      zerolog.Logger
}

// NewHandler creates a new notes handler. accounts maps configured
// account names to brokerage numbers and gates which accounts exist.
func NewHandler(repo *Repository, accounts map[string]string, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		accounts: accounts,
		log:      log.With().Str("handler", "notes").Logger(),
	}
}

// RegisterRoutes registers all notes routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notes/{account}", h.HandleGetNotes)
	r.Post("/notes/{account}", h.HandleSetNote)
}

// HandleGetNotes returns every ticker note for one account
func (h *Handler) HandleGetNotes(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	if _, ok := h.accounts[account]; !ok {
		h.writeError(w, http.StatusNotFound, "unknown account: "+account)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"notes":   h.repo.Load(account),
	})
}

type setNoteRequest struct {
	Ticker string `json:"ticker"`
	Note   string `json:"note"`
}

// HandleSetNote creates, updates or clears one ticker note
func (h *Handler) HandleSetNote(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	if _, ok := h.accounts[account]; !ok {
		h.writeError(w, http.StatusNotFound, "unknown account: "+account)
		return
	}

	var req setNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	if err := h.repo.Set(account, req.Ticker, req.Note); err != nil {
		h.log.Error().Err(err).Str("account", account).Str("ticker", req.Ticker).Msg("Failed to save note")
		h.writeError(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"ticker":  req.Ticker,
		"note":    req.Note,
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
