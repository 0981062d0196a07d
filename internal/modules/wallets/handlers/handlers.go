// Package handlers provides HTTP handlers for wallet operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/wallets"
)

// Handler handles wallet HTTP requests
type Handler struct {
	service *wallets.Service
	log     zerolog.Logger
}

// NewHandler creates a new wallet handler
func NewHandler(service *wallets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "wallets").Logger(),
	}
}

// RegisterRoutes mounts the wallet routes on the given router. The router
// is expected to sit behind the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{walletID}", h.HandleGet)
	r.Patch("/{walletID}", h.HandleRename)
	r.Delete("/{walletID}", h.HandleDelete)
	r.Get("/{walletID}/valuation", h.HandleValuation)
}

type createRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// HandleList handles GET /api/wallets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"wallets": summaries})
}

// HandleCreate handles POST /api/wallets
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &errs.Validation{Message: "Invalid request body"})
		return
	}

	wallet, err := h.service.Create(r.Context(), req.Name, req.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, wallet)
}

// HandleGet handles GET /api/wallets/{walletID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.Get(r.Context(), chi.URLParam(r, "walletID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wallet)
}

// HandleRename handles PATCH /api/wallets/{walletID}
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &errs.Validation{Message: "Invalid request body"})
		return
	}

	if err := h.service.Rename(r.Context(), chi.URLParam(r, "walletID"), req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleDelete handles DELETE /api/wallets/{walletID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "walletID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleValuation handles GET /api/wallets/{walletID}/valuation
func (h *Handler) HandleValuation(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Valuate(r.Context(), chi.URLParam(r, "walletID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
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
