// Package wallets manages currency-denominated position containers owned
// by users, including their live valuation.
package wallets

import "time"

// Supported wallet currencies. Currency is immutable after creation and
// determines the quote venue for every position in the wallet.
const (
	CurrencyUSD = "USD"
	CurrencyPLN = "PLN"
)

// MaxNameLength bounds wallet display names.
const MaxNameLength = 50

// Wallet is a named container of positions owned by one user.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// WalletSummary is a wallet with its aggregate cost basis, used by the
// wallet list view.
type WalletSummary struct {
	Wallet
	TotalCostBasis float64 `json:"totalCostBasis"`
	PositionCount  int     `json:"positionCount"`
}
