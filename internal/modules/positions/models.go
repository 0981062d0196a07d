// Package positions manages acquisition lots inside wallets.
package positions

import "time"

// Position is one acquisition lot. Multiple lots may share a symbol
// within a wallet; grouping happens at valuation time.
type Position struct {
	ID            string    `json:"id"`
	WalletID      string    `json:"-"`
	CompanySymbol string    `json:"companySymbol"`
	CompanyName   string    `json:"companyName"`
	Quantity      float64   `json:"quantity"`
	PricePerShare float64   `json:"pricePerShare"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WalletPosition is one flat row of the all-wallets join used by the
// snapshot rollup.
type WalletPosition struct {
	WalletID       string
	WalletCurrency string
	CompanySymbol  string
	Quantity       float64
	PricePerShare  float64
}
