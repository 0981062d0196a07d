package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/quotes"
)

// StockHandlers serves the live price read endpoint.
type StockHandlers struct {
	quotes *quotes.Provider
	log    zerolog.Logger
}

// NewStockHandlers creates new stock handlers
func NewStockHandlers(provider *quotes.Provider, log zerolog.Logger) *StockHandlers {
	return &StockHandlers{
		quotes: provider,
		log:    log.With().Str("handler", "stock").Logger(),
	}
}

// HandleGetPrices handles GET /api/stock?symbol=A,B,C&exchange=US|WA
func (h *StockHandlers) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbolParam := r.URL.Query().Get("symbol")
	exchangeParam := r.URL.Query().Get("exchange")
	if symbolParam == "" || exchangeParam == "" {
		h.writeError(w, &errs.Validation{Message: "Missing required params: symbol, exchange"})
		return
	}

	venue, err := quotes.ParseVenue(exchangeParam)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var symbols []string
	for _, s := range strings.Split(symbolParam, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	result, err := h.quotes.FetchQuotes(r.Context(), symbols, venue)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *StockHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *StockHandlers) writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Price fetch failed")
	}
	h.writeJSON(w, status, errs.Serialize(err))
}
