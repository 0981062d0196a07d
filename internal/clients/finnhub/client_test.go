package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		fmt.Fprint(w, `{"c":55.5,"d":1.2,"dp":2.2,"h":56,"l":54,"o":54.5,"pc":54.3,"t":1700000000}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())

	price, err := client.CurrentPrice(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, 55.5, price)
}

func TestCurrentPriceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())

	_, err := client.CurrentPrice(context.Background(), "AAA")
	require.Error(t, err)
	// The message is surfaced verbatim as the per-symbol failure reason.
	assert.Equal(t, "AAA: HTTP 429", err.Error())
}

func TestCurrentPriceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())

	_, err := client.CurrentPrice(context.Background(), "AAA")
	assert.Error(t, err)
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient(Config{}, zerolog.Nop()).Configured())
	assert.True(t, NewClient(Config{APIKey: "k"}, zerolog.Nop()).Configured())
}
