// Package snapshots persists point-in-time wallet valuations and runs the
// rollup that produces them.
package snapshots

import "time"

// DailySnapshot is one wallet's valuation for one calendar day. At most
// one row exists per (wallet, date); re-running a day overwrites it.
type DailySnapshot struct {
	ID             string  `json:"id"`
	WalletID       string  `json:"walletId"`
	SnapshotDate   string  `json:"snapshotDate"` // YYYY-MM-DD, UTC
	TotalValue     float64 `json:"totalValue"`
	TotalCostBasis float64 `json:"totalCostBasis"`
}

// IntradaySnapshot is one append-only valuation sample. Rows older than
// 48 hours are pruned by the daily rollup.
type IntradaySnapshot struct {
	ID             string    `json:"id"`
	WalletID       string    `json:"walletId"`
	SnapshotAt     time.Time `json:"snapshotAt"`
	TotalValue     float64   `json:"totalValue"`
	TotalCostBasis float64   `json:"totalCostBasis"`
}

// IntradayRetention is how long intraday samples are kept.
const IntradayRetention = 48 * time.Hour
