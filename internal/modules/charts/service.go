// Package charts reads wallet snapshot history as chart series.
package charts

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/snapshots"
	"walletfolio/internal/modules/wallets"
)

// Range selects the chart window. 1D reads intraday samples; the rest
// read daily snapshots.
type Range string

const (
	Range1D  Range = "1D"
	Range1W  Range = "1W"
	Range1M  Range = "1M"
	Range3M  Range = "3M"
	Range6M  Range = "6M"
	Range1YR Range = "1YR"
)

// ChartPoint is one sample of a wallet's value over time. Timestamp is
// epoch milliseconds; daily points carry the date label, intraday points
// omit it.
type ChartPoint struct {
	Timestamp      int64   `json:"timestamp"`
	Label          string  `json:"label,omitempty"`
	TotalValue     float64 `json:"totalValue"`
	TotalCostBasis float64 `json:"totalCostBasis"`
}

// SnapshotReader is the slice of the snapshot repository the chart needs.
type SnapshotReader interface {
	DailySince(ctx context.Context, walletID, startDate string) ([]snapshots.DailySnapshot, error)
	IntradaySince(ctx context.Context, walletID string, since time.Time) ([]snapshots.IntradaySnapshot, error)
}

// WalletGetter resolves a wallet for the session user.
type WalletGetter interface {
	Get(ctx context.Context, walletID string) (*wallets.Wallet, error)
}

// Service reads chart series. Ownership is resolved through the wallet
// service before any snapshot read.
type Service struct {
	snapshots SnapshotReader
	wallets   WalletGetter
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new chart service
func NewService(snapshots SnapshotReader, wallets WalletGetter, log zerolog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		wallets:   wallets,
		log:       log.With().Str("service", "charts").Logger(),
		now:       time.Now,
	}
}

// ReadSeries returns the wallet's chart points for the requested range,
// ascending in time. An empty series is valid; a brand-new wallet simply
// has no history yet.
func (s *Service) ReadSeries(ctx context.Context, walletID string, r Range) ([]ChartPoint, error) {
	if _, err := s.wallets.Get(ctx, walletID); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if r == Range1D {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		rows, err := s.snapshots.IntradaySince(ctx, walletID, midnight)
		if err != nil {
			return nil, err
		}
		points := make([]ChartPoint, len(rows))
		for i, row := range rows {
			points[i] = ChartPoint{
				Timestamp:      row.SnapshotAt.UnixMilli(),
				TotalValue:     row.TotalValue,
				TotalCostBasis: row.TotalCostBasis,
			}
		}
		return points, nil
	}

	start, err := rangeStart(now, r)
	if err != nil {
		return nil, err
	}

	rows, err := s.snapshots.DailySince(ctx, walletID, start.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, len(rows))
	for i, row := range rows {
		date, err := time.ParseInLocation("2006-01-02", row.SnapshotDate, time.UTC)
		if err != nil {
			return nil, &errs.Database{Operation: "daily snapshot select", Cause: err}
		}
		points[i] = ChartPoint{
			Timestamp:      date.UnixMilli(),
			Label:          row.SnapshotDate,
			TotalValue:     row.TotalValue,
			TotalCostBasis: row.TotalCostBasis,
		}
	}
	return points, nil
}

func rangeStart(now time.Time, r Range) (time.Time, error) {
	switch r {
	case Range1W:
		return now.AddDate(0, 0, -7), nil
	case Range1M:
		return now.AddDate(0, -1, 0), nil
	case Range3M:
		return now.AddDate(0, -3, 0), nil
	case Range6M:
		return now.AddDate(0, -6, 0), nil
	case Range1YR:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, &errs.Validation{Field: "range", Message: "Range must be one of 1D, 1W, 1M, 3M, 6M, 1YR"}
}
