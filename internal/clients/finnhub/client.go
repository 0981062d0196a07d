// Package finnhub provides a quote client for the Finnhub API (US venue).
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production Finnhub endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Quote is the Finnhub quote response shape.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Client for the Finnhub quote API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// Config holds Finnhub client configuration.
type Config struct {
	BaseURL string // Defaults to DefaultBaseURL
	APIKey  string
	Timeout time.Duration // Defaults to 10s
}

// NewClient creates a new Finnhub client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// Configured reports whether an API key is set. Callers must check this
// before issuing quote requests; a missing key is a configuration error,
// not an API failure.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CurrentPrice fetches the current price for one symbol. The error message
// on a non-2xx response is "SYMBOL: HTTP <status>", which callers surface
// verbatim as the per-symbol failure reason.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", symbol, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: HTTP %d", symbol, resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("%s: failed to parse response: %w", symbol, err)
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", quote.Current).Msg("Fetched quote")

	return quote.Current, nil
}
