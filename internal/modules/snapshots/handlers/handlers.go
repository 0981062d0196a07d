// Package handlers provides the HTTP trigger for the snapshot rollup.
package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/snapshots"
)

// Handler handles the cron snapshot trigger
type Handler struct {
	service *snapshots.RollupService
	secret  string
	log     zerolog.Logger
}

// NewHandler creates a new snapshot trigger handler
func NewHandler(service *snapshots.RollupService, secret string, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		secret:  secret,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// RegisterRoutes mounts the cron trigger route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/cron/snapshot", h.HandleTrigger)
}

// HandleTrigger handles GET /api/cron/snapshot?type=daily|intraday.
//
// The shared secret is checked before anything else touches the store. An
// unset secret rejects every request; there is no open mode.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Not Authorized"})
		return
	}

	mode, err := snapshots.ParseMode(r.URL.Query().Get("type"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid param: must be 'daily' or 'intraday'"})
		return
	}

	summary, err := h.service.Run(r.Context(), mode)
	if err != nil {
		h.log.Error().Err(err).Str("mode", string(mode)).Msg("Snapshot rollup failed")
		h.writeJSON(w, errs.HTTPStatus(err), errs.Serialize(err))
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
