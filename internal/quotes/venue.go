// Package quotes aggregates current stock prices across quote venues.
package quotes

import (
	"strings"

	"walletfolio/internal/errs"
)

// Venue identifies a quote source. US symbols are quoted per-symbol via
// Finnhub; WA (Warsaw) symbols are quoted in one batched CSV via Stooq.
type Venue string

const (
	VenueUS Venue = "US"
	VenueWA Venue = "WA"
)

// WASuffix marks Warsaw-listed symbols, e.g. "CDR.WA".
const WASuffix = ".WA"

// VenueForCurrency maps a wallet currency to the venue its positions are
// quoted on. USD wallets hold US-listed symbols; everything else is Warsaw.
func VenueForCurrency(currency string) Venue {
	if currency == "USD" {
		return VenueUS
	}
	return VenueWA
}

// ParseVenue validates an exchange string from the outside.
func ParseVenue(s string) (Venue, error) {
	switch Venue(strings.ToUpper(s)) {
	case VenueUS:
		return VenueUS, nil
	case VenueWA:
		return VenueWA, nil
	}
	return "", &errs.Validation{Field: "exchange", Message: "Exchange must be US or WA"}
}
