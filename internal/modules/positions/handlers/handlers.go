// Package handlers provides HTTP handlers for position operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/positions"
)

// Handler handles position HTTP requests
type Handler struct {
	service *positions.Service
	log     zerolog.Logger
}

// NewHandler creates a new position handler
func NewHandler(service *positions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "positions").Logger(),
	}
}

// RegisterRoutes mounts the position routes under a wallet subtree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{walletID}/positions", h.HandleList)
	r.Post("/{walletID}/positions", h.HandleAdd)
	r.Delete("/{walletID}/positions/{positionID}", h.HandleDelete)
}

type addRequest struct {
	CompanySymbol string  `json:"companySymbol"`
	CompanyName   string  `json:"companyName"`
	Quantity      float64 `json:"quantity"`
	PricePerShare float64 `json:"pricePerShare"`
}

// HandleList handles GET /api/wallets/{walletID}/positions
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), chi.URLParam(r, "walletID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"positions": list})
}

// HandleAdd handles POST /api/wallets/{walletID}/positions
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &errs.Validation{Message: "Invalid request body"})
		return
	}

	position, err := h.service.Add(r.Context(), chi.URLParam(r, "walletID"),
		req.CompanySymbol, req.CompanyName, req.Quantity, req.PricePerShare)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, position)
}

// HandleDelete handles DELETE /api/wallets/{walletID}/positions/{positionID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "walletID"), chi.URLParam(r, "positionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	h.writeJSON(w, status, errs.Serialize(err))
}
