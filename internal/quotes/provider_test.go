package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletfolio/internal/errs"
)

type fakeFinnhub struct {
	mu         sync.Mutex
	configured bool
	prices     map[string]float64
	fails      map[string]error
	calls      []string
}

func (f *fakeFinnhub) Configured() bool { return f.configured }

func (f *fakeFinnhub) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if err, ok := f.fails[symbol]; ok {
		return 0, err
	}
	return f.prices[symbol], nil
}

type fakeStooq struct {
	body  string
	err   error
	calls int
}

func (f *fakeStooq) Quotes(_ context.Context, codes []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

type memCache struct {
	entries map[string][]byte
	expired map[string]bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), expired: make(map[string]bool)}
}

func (c *memCache) GetIfFresh(_, key string) (json.RawMessage, error) {
	if c.expired[key] {
		return nil, nil
	}
	return c.entries[key], nil
}

func (c *memCache) Store(_, key string, data interface{}, _ time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.entries[key] = b
	return nil
}

func newTestProvider(fh *fakeFinnhub, st *fakeStooq, cache Cache) *Provider {
	return NewProvider(fh, st, cache, time.Minute, zerolog.Nop())
}

func TestFetchQuotesUSPerSymbolIsolation(t *testing.T) {
	fh := &fakeFinnhub{
		configured: true,
		prices:     map[string]float64{"AAA": 55, "CCC": 10},
		fails:      map[string]error{"BBB": errors.New("BBB: HTTP 429")},
	}
	p := newTestProvider(fh, &fakeStooq{}, nil)

	result, err := p.FetchQuotes(context.Background(), []string{"AAA", "BBB", "CCC"}, VenueUS)
	require.NoError(t, err)

	assert.ElementsMatch(t, []PriceSuccess{
		{Symbol: "AAA", Price: 55},
		{Symbol: "CCC", Price: 10},
	}, result.Prices)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, PriceFetchFailure{Symbol: "BBB", Reason: "BBB: HTTP 429"}, result.Failures[0])
}

func TestFetchQuotesUSMissingKey(t *testing.T) {
	p := newTestProvider(&fakeFinnhub{configured: false}, &fakeStooq{}, nil)

	_, err := p.FetchQuotes(context.Background(), []string{"AAA"}, VenueUS)
	require.Error(t, err)

	var cfgErr *errs.Config
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "FINNHUB_API_KEY", cfgErr.Key)
}

func TestFetchQuotesEmptyInputNoCall(t *testing.T) {
	fh := &fakeFinnhub{configured: false}
	st := &fakeStooq{}
	p := newTestProvider(fh, st, nil)

	result, err := p.FetchQuotes(context.Background(), nil, VenueUS)
	require.NoError(t, err)
	assert.Empty(t, result.Prices)
	assert.Empty(t, result.Failures)
	assert.Empty(t, fh.calls)
	assert.Zero(t, st.calls)
}

func TestFetchQuotesDeduplicates(t *testing.T) {
	fh := &fakeFinnhub{configured: true, prices: map[string]float64{"AAA": 55}}
	p := newTestProvider(fh, &fakeStooq{}, nil)

	result, err := p.FetchQuotes(context.Background(), []string{"AAA", "AAA", "AAA"}, VenueUS)
	require.NoError(t, err)
	assert.Len(t, result.Prices, 1)
	assert.Len(t, fh.calls, 1)
}

func TestFetchQuotesWAParsesCSV(t *testing.T) {
	st := &fakeStooq{body: "CDR,123.45\r\nPKO,B/D\r\n"}
	p := newTestProvider(&fakeFinnhub{}, st, nil)

	result, err := p.FetchQuotes(context.Background(), []string{"CDR.WA", "PKO.WA", "XYZ.WA"}, VenueWA)
	require.NoError(t, err)

	require.Len(t, result.Prices, 1)
	assert.Equal(t, PriceSuccess{Symbol: "CDR.WA", Price: 123.45}, result.Prices[0])

	assert.ElementsMatch(t, []PriceFetchFailure{
		{Symbol: "PKO.WA", Reason: "No data available"},
		{Symbol: "XYZ.WA", Reason: "No data available"},
	}, result.Failures)
	assert.Equal(t, 1, st.calls, "WA symbols are fetched in one batch")
}

func TestFetchQuotesWAVenueFatal(t *testing.T) {
	st := &fakeStooq{err: &errs.ExternalAPI{Service: "Stooq", Status: 503}}
	p := newTestProvider(&fakeFinnhub{}, st, nil)

	_, err := p.FetchQuotes(context.Background(), []string{"CDR.WA"}, VenueWA)
	require.Error(t, err)

	var apiErr *errs.ExternalAPI
	assert.True(t, errors.As(err, &apiErr))
}

func TestFetchQuotesServesFromCache(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Store(cacheTable, "AAA", cachedQuote{Price: 55}, time.Minute))

	fh := &fakeFinnhub{configured: true}
	p := newTestProvider(fh, &fakeStooq{}, cache)

	result, err := p.FetchQuotes(context.Background(), []string{"AAA"}, VenueUS)
	require.NoError(t, err)
	require.Len(t, result.Prices, 1)
	assert.Equal(t, 55.0, result.Prices[0].Price)
	assert.Empty(t, fh.calls, "fresh cache entries must not hit the venue")
}

func TestFetchQuotesStaleCacheRefetches(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Store(cacheTable, "AAA", cachedQuote{Price: 1}, time.Minute))
	cache.expired["AAA"] = true

	fh := &fakeFinnhub{configured: true, prices: map[string]float64{"AAA": 60}}
	p := newTestProvider(fh, &fakeStooq{}, cache)

	result, err := p.FetchQuotes(context.Background(), []string{"AAA"}, VenueUS)
	require.NoError(t, err)
	require.Len(t, result.Prices, 1)
	assert.Equal(t, 60.0, result.Prices[0].Price)
	assert.Len(t, fh.calls, 1)
}

func TestFetchQuotesStoresFetchedPrices(t *testing.T) {
	cache := newMemCache()
	fh := &fakeFinnhub{configured: true, prices: map[string]float64{"AAA": 55}}
	p := newTestProvider(fh, &fakeStooq{}, cache)

	_, err := p.FetchQuotes(context.Background(), []string{"AAA"}, VenueUS)
	require.NoError(t, err)

	data, err := cache.GetIfFresh(cacheTable, "AAA")
	require.NoError(t, err)
	require.NotNil(t, data)

	var quote cachedQuote
	require.NoError(t, json.Unmarshal(data, &quote))
	assert.Equal(t, 55.0, quote.Price)
}

func TestVenueForCurrency(t *testing.T) {
	assert.Equal(t, VenueUS, VenueForCurrency("USD"))
	assert.Equal(t, VenueWA, VenueForCurrency("PLN"))
	assert.Equal(t, VenueWA, VenueForCurrency(""))
}

func TestParseVenue(t *testing.T) {
	v, err := ParseVenue("us")
	require.NoError(t, err)
	assert.Equal(t, VenueUS, v)

	v, err = ParseVenue("WA")
	require.NoError(t, err)
	assert.Equal(t, VenueWA, v)

	_, err = ParseVenue("LSE")
	var valErr *errs.Validation
	require.True(t, errors.As(err, &valErr))
}
