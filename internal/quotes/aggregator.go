package quotes

import (
	"context"
	"sync"

	"walletfolio/internal/errs"
)

// PriceBook is the merged outcome of a multi-venue fetch: every symbol is
// either priced or listed with a failure reason, never both.
type PriceBook struct {
	Prices   map[string]float64
	Failures []PriceFetchFailure
}

// HasPrice reports whether the book holds a price for symbol.
func (b PriceBook) HasPrice(symbol string) bool {
	_, ok := b.Prices[symbol]
	return ok
}

// Aggregate fetches all venue groups concurrently and merges them into one
// book. A venue-level fault (venue unreachable, missing credential) degrades
// to per-symbol failures for that venue's whole group so that the other
// venue still contributes prices. The same symbol appearing priced under
// two venues is a caller bug and fails the aggregation.
func (p *Provider) Aggregate(ctx context.Context, groups map[Venue][]string) (PriceBook, error) {
	book := PriceBook{Prices: make(map[string]float64)}

	type venueResult struct {
		venue   Venue
		symbols []string
		result  Result
		err     error
	}
	results := make([]venueResult, 0, len(groups))
	for venue, symbols := range groups {
		results = append(results, venueResult{venue: venue, symbols: symbols})
	}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(r *venueResult) {
			defer wg.Done()
			r.result, r.err = p.FetchQuotes(ctx, r.symbols, r.venue)
		}(&results[i])
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			p.log.Warn().Err(r.err).Str("venue", string(r.venue)).Msg("Venue fetch failed")
			for _, symbol := range dedupe(r.symbols) {
				book.Failures = append(book.Failures, PriceFetchFailure{
					Symbol: symbol,
					Reason: r.err.Error(),
				})
			}
			continue
		}
		for _, price := range r.result.Prices {
			if _, exists := book.Prices[price.Symbol]; exists {
				return PriceBook{}, &errs.Validation{
					Field:   "symbol",
					Message: "Symbol " + price.Symbol + " is priced on more than one exchange",
				}
			}
			book.Prices[price.Symbol] = price.Price
		}
		book.Failures = append(book.Failures, r.result.Failures...)
	}

	return book, nil
}
