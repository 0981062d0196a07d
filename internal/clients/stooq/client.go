// Package stooq provides a batched CSV quote client for stooq.pl (WA venue).
package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
)

// DefaultBaseURL is the production Stooq endpoint.
const DefaultBaseURL = "https://stooq.pl"

// Client for the Stooq CSV quote feed. No credential is required.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// Config holds Stooq client configuration.
type Config struct {
	BaseURL string        // Defaults to DefaultBaseURL
	Timeout time.Duration // Defaults to 10s
}

// NewClient creates a new Stooq client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.With().Str("client", "stooq").Logger(),
	}
}

// Quotes fetches quotes for a batch of venue-local symbol codes in one
// request and returns the raw CSV body (one "symbol,price" line per code).
// A non-2xx response fails the whole call as an external API error; there
// is no per-symbol status at the transport level.
func (c *Client) Quotes(ctx context.Context, codes []string) (string, error) {
	u := fmt.Sprintf("%s/q/l/?s=%s&f=sc&e=csv",
		c.baseURL, url.QueryEscape(strings.Join(codes, "+")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &errs.ExternalAPI{Service: "Stooq", Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &errs.ExternalAPI{Service: "Stooq", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &errs.ExternalAPI{Service: "Stooq", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errs.ExternalAPI{Service: "Stooq", Cause: err}
	}

	c.log.Debug().Int("codes", len(codes)).Msg("Fetched CSV quotes")

	return string(body), nil
}
