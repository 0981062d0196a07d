// Package handlers provides HTTP handlers for wallet chart series.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/charts"
)

// Handler handles chart HTTP requests
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new chart handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// RegisterRoutes mounts the chart route under the wallet subtree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{walletID}/chart", h.HandleChart)
}

// HandleChart handles GET /api/wallets/{walletID}/chart?range=1D|1W|1M|3M|6M|1YR
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.ReadSeries(r.Context(),
		chi.URLParam(r, "walletID"), charts.Range(r.URL.Query().Get("range")))
	if err != nil {
		status := errs.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Chart read failed")
		}
		h.writeJSON(w, status, errs.Serialize(err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
