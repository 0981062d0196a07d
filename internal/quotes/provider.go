package quotes

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
)

const cacheTable = "current_quotes"

// PriceSuccess is one resolved symbol price.
type PriceSuccess struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// PriceFetchFailure records why one symbol could not be priced. Fetching
// continues for the other symbols.
type PriceFetchFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Result partitions a batch of symbols into priced and failed.
type Result struct {
	Prices   []PriceSuccess      `json:"prices"`
	Failures []PriceFetchFailure `json:"failures"`
}

// FinnhubClient is the per-symbol US quote source.
type FinnhubClient interface {
	Configured() bool
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// StooqClient is the batched WA quote source. It returns raw CSV.
type StooqClient interface {
	Quotes(ctx context.Context, codes []string) (string, error)
}

// Cache is the freshness-checked quote cache (see internal/clientdata).
type Cache interface {
	GetIfFresh(table, key string) (json.RawMessage, error)
	Store(table, key string, data interface{}, ttl time.Duration) error
}

type cachedQuote struct {
	Price float64 `json:"price"`
}

// Provider fetches current prices from one venue per call, with a
// short-TTL cache in front of both venues.
type Provider struct {
	finnhub FinnhubClient
	stooq   StooqClient
	cache   Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewProvider creates a quote provider. A nil cache disables caching.
func NewProvider(finnhub FinnhubClient, stooq StooqClient, cache Cache, ttl time.Duration, log zerolog.Logger) *Provider {
	return &Provider{
		finnhub: finnhub,
		stooq:   stooq,
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("component", "quotes").Logger(),
	}
}

// FetchQuotes resolves current prices for the given symbols on one venue.
// Individual symbol failures are collected in the result, never returned as
// an error; the returned error is reserved for faults that prevent the
// fetch entirely (missing API key, venue unreachable).
func (p *Provider) FetchQuotes(ctx context.Context, symbols []string, venue Venue) (Result, error) {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return Result{Prices: []PriceSuccess{}, Failures: []PriceFetchFailure{}}, nil
	}

	result := Result{Prices: []PriceSuccess{}, Failures: []PriceFetchFailure{}}

	// Serve cached symbols without touching the venue.
	var misses []string
	for _, symbol := range symbols {
		if price, ok := p.cachedPrice(symbol); ok {
			result.Prices = append(result.Prices, PriceSuccess{Symbol: symbol, Price: price})
			continue
		}
		misses = append(misses, symbol)
	}
	if len(misses) == 0 {
		return result, nil
	}

	var (
		fetched Result
		err     error
	)
	switch venue {
	case VenueUS:
		fetched, err = p.fetchUS(ctx, misses)
	case VenueWA:
		fetched, err = p.fetchWA(ctx, misses)
	default:
		return Result{}, &errs.Validation{Field: "exchange", Message: "Exchange must be US or WA"}
	}
	if err != nil {
		return Result{}, err
	}

	for _, price := range fetched.Prices {
		p.storePrice(price.Symbol, price.Price)
	}

	result.Prices = append(result.Prices, fetched.Prices...)
	result.Failures = append(result.Failures, fetched.Failures...)

	p.log.Debug().
		Str("venue", string(venue)).
		Int("priced", len(result.Prices)).
		Int("failed", len(result.Failures)).
		Msg("Fetched quotes")

	return result, nil
}

// fetchUS quotes each symbol concurrently. Every request settles on its
// own; one bad symbol never blocks the rest of the batch.
func (p *Provider) fetchUS(ctx context.Context, symbols []string) (Result, error) {
	if !p.finnhub.Configured() {
		return Result{}, &errs.Config{Key: "FINNHUB_API_KEY"}
	}

	type outcome struct {
		price float64
		err   error
	}
	outcomes := make([]outcome, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			price, err := p.finnhub.CurrentPrice(ctx, symbol)
			outcomes[i] = outcome{price: price, err: err}
		}(i, symbol)
	}
	wg.Wait()

	result := Result{Prices: []PriceSuccess{}, Failures: []PriceFetchFailure{}}
	for i, symbol := range symbols {
		if outcomes[i].err != nil {
			result.Failures = append(result.Failures, PriceFetchFailure{
				Symbol: symbol,
				Reason: outcomes[i].err.Error(),
			})
			continue
		}
		result.Prices = append(result.Prices, PriceSuccess{Symbol: symbol, Price: outcomes[i].price})
	}
	return result, nil
}

// fetchWA quotes all symbols in one batched CSV request. Stooq expects the
// venue-local code without the ".WA" suffix; responses are matched back to
// the full symbol.
func (p *Provider) fetchWA(ctx context.Context, symbols []string) (Result, error) {
	codes := make([]string, len(symbols))
	for i, symbol := range symbols {
		codes[i] = strings.TrimSuffix(symbol, WASuffix)
	}

	body, err := p.stooq.Quotes(ctx, codes)
	if err != nil {
		return Result{}, err
	}

	prices := parseStooqCSV(body)

	result := Result{Prices: []PriceSuccess{}, Failures: []PriceFetchFailure{}}
	for i, symbol := range symbols {
		price, ok := prices[strings.ToUpper(codes[i])]
		if !ok {
			result.Failures = append(result.Failures, PriceFetchFailure{
				Symbol: symbol,
				Reason: "No data available",
			})
			continue
		}
		result.Prices = append(result.Prices, PriceSuccess{Symbol: symbol, Price: price})
	}
	return result, nil
}

// parseStooqCSV extracts "code,price" lines into a map keyed by the
// uppercased code. Lines whose price column is "B/D" or otherwise not a
// number are omitted; the caller reports those symbols as failed.
func parseStooqCSV(body string) map[string]float64 {
	prices := make(map[string]float64)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		prices[strings.ToUpper(strings.TrimSpace(parts[0]))] = price
	}
	return prices
}

func (p *Provider) cachedPrice(symbol string) (float64, bool) {
	if p.cache == nil {
		return 0, false
	}
	data, err := p.cache.GetIfFresh(cacheTable, symbol)
	if err != nil || data == nil {
		return 0, false
	}
	var quote cachedQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return 0, false
	}
	return quote.Price, true
}

func (p *Provider) storePrice(symbol string, price float64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Store(cacheTable, symbol, cachedQuote{Price: price}, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	return out
}
