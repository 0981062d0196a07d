package snapshots

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/positions"
	"walletfolio/internal/quotes"
)

// Mode selects which snapshot table a rollup run writes.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeIntraday Mode = "intraday"
)

// ParseMode validates the type selector of a rollup trigger.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDaily:
		return ModeDaily, nil
	case ModeIntraday:
		return ModeIntraday, nil
	}
	return "", &errs.Validation{Field: "type", Message: "Invalid param: must be 'daily' or 'intraday'"}
}

// Summary reports one rollup run. Inserted plus skipped always equals the
// total wallet count.
type Summary struct {
	Success           bool                       `json:"success"`
	Type              Mode                       `json:"type"`
	WalletsTotal      int                        `json:"walletsTotal"`
	SnapshotsInserted int                        `json:"snapshotsInserted"`
	WalletsSkipped    int                        `json:"walletsSkipped"`
	PriceFailures     []quotes.PriceFetchFailure `json:"priceFailures"`
}

// PositionSource loads the all-wallets position join for the rollup.
type PositionSource interface {
	ListAllWithWallets(ctx context.Context) ([]positions.WalletPosition, error)
}

// Aggregator resolves prices across quote venues.
type Aggregator interface {
	Aggregate(ctx context.Context, groups map[quotes.Venue][]string) (quotes.PriceBook, error)
}

// RollupService computes and persists wallet snapshots for all wallets in
// one pass. Prices are fetched once for the whole batch, not per wallet.
type RollupService struct {
	source     PositionSource
	aggregator Aggregator
	repo       *Repository
	log        zerolog.Logger
	now        func() time.Time
}

// NewRollupService creates a new rollup service
func NewRollupService(source PositionSource, aggregator Aggregator, repo *Repository, log zerolog.Logger) *RollupService {
	return &RollupService{
		source:     source,
		aggregator: aggregator,
		repo:       repo,
		log:        log.With().Str("service", "snapshot_rollup").Logger(),
		now:        time.Now,
	}
}

type walletGroup struct {
	currency  string
	positions []positions.WalletPosition
}

// Run executes one rollup in the given mode.
//
// A wallet whose positions are not all priced is skipped entirely for this
// run; a snapshot either covers 100% of a wallet's holdings or does not
// exist. Skips are reported in the summary, never as errors. A store
// failure aborts the run.
func (s *RollupService) Run(ctx context.Context, mode Mode) (*Summary, error) {
	flat, err := s.source.ListAllWithWallets(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*walletGroup)
	order := []string{}
	for _, row := range flat {
		g, ok := grouped[row.WalletID]
		if !ok {
			g = &walletGroup{currency: row.WalletCurrency}
			grouped[row.WalletID] = g
			order = append(order, row.WalletID)
		}
		g.positions = append(g.positions, row)
	}

	groups := map[quotes.Venue][]string{}
	for _, g := range grouped {
		venue := quotes.VenueForCurrency(g.currency)
		for _, pos := range g.positions {
			groups[venue] = append(groups[venue], pos.CompanySymbol)
		}
	}

	walletsTotal := len(grouped)
	s.log.Info().
		Str("mode", string(mode)).
		Int("wallets", walletsTotal).
		Int("us_symbols", len(groups[quotes.VenueUS])).
		Int("wa_symbols", len(groups[quotes.VenueWA])).
		Msg("Starting snapshot rollup")

	book, err := s.aggregator.Aggregate(ctx, groups)
	if err != nil {
		return nil, err
	}
	if len(book.Failures) > 0 {
		s.log.Warn().Interface("failures", book.Failures).Msg("Price fetch failures")
	}

	now := s.now().UTC()
	snapshotDate := now.Format("2006-01-02")

	var dailyRows []DailySnapshot
	var intradayRows []IntradaySnapshot

	for _, walletID := range order {
		g := grouped[walletID]
		totalValue := 0.0
		totalCostBasis := 0.0
		priced := true

		for _, pos := range g.positions {
			price, ok := book.Prices[pos.CompanySymbol]
			if !ok {
				s.log.Warn().
					Str("symbol", pos.CompanySymbol).
					Str("wallet_id", walletID).
					Msg("Missing price, skipping wallet")
				priced = false
				break
			}
			totalValue += pos.Quantity * price
			totalCostBasis += pos.Quantity * pos.PricePerShare
		}
		if !priced {
			continue
		}

		if mode == ModeDaily {
			dailyRows = append(dailyRows, DailySnapshot{
				ID:             uuid.New().String(),
				WalletID:       walletID,
				SnapshotDate:   snapshotDate,
				TotalValue:     totalValue,
				TotalCostBasis: totalCostBasis,
			})
		} else {
			intradayRows = append(intradayRows, IntradaySnapshot{
				ID:             uuid.New().String(),
				WalletID:       walletID,
				SnapshotAt:     now,
				TotalValue:     totalValue,
				TotalCostBasis: totalCostBasis,
			})
		}
	}

	if err := s.repo.UpsertDailyBatch(ctx, dailyRows); err != nil {
		return nil, err
	}
	if err := s.repo.InsertIntradayBatch(ctx, intradayRows); err != nil {
		return nil, err
	}

	if mode == ModeDaily {
		// Pruning runs on every daily rollup regardless of skips.
		pruned, err := s.repo.DeleteIntradayBefore(ctx, now.Add(-IntradayRetention))
		if err != nil {
			return nil, err
		}
		if pruned > 0 {
			s.log.Info().Int64("rows", pruned).Msg("Pruned intraday snapshots")
		}
	}

	inserted := len(dailyRows)
	if mode == ModeIntraday {
		inserted = len(intradayRows)
	}

	failures := book.Failures
	if failures == nil {
		failures = []quotes.PriceFetchFailure{}
	}

	summary := &Summary{
		Success:           true,
		Type:              mode,
		WalletsTotal:      walletsTotal,
		SnapshotsInserted: inserted,
		WalletsSkipped:    walletsTotal - inserted,
		PriceFailures:     failures,
	}

	s.log.Info().
		Int("inserted", summary.SnapshotsInserted).
		Int("skipped", summary.WalletsSkipped).
		Msg("Snapshot rollup completed")

	return summary, nil
}
