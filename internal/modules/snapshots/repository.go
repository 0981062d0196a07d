package snapshots

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/database"
	"walletfolio/internal/errs"
)

// Repository handles snapshot persistence. Snapshots are system-written
// only; no user-facing mutation path exists.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// UpsertDailyBatch writes all daily rows in one transaction, overwriting
// value and cost basis on (wallet_id, snapshot_date) conflict. A failure
// aborts the whole batch.
func (r *Repository) UpsertDailyBatch(ctx context.Context, rows []DailySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO wallet_daily_snapshots (id, wallet_id, snapshot_date, total_value, total_cost_basis)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(wallet_id, snapshot_date) DO UPDATE SET
				total_value = excluded.total_value,
				total_cost_basis = excluded.total_cost_basis`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row.ID, row.WalletID, row.SnapshotDate,
				row.TotalValue, row.TotalCostBasis); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &errs.Database{Operation: "daily snapshot upsert", Cause: err}
	}
	return nil
}

// InsertIntradayBatch appends all intraday rows in one transaction.
func (r *Repository) InsertIntradayBatch(ctx context.Context, rows []IntradaySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO wallet_intraday_snapshots (id, wallet_id, snapshot_at, total_value, total_cost_basis)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row.ID, row.WalletID, row.SnapshotAt.Unix(),
				row.TotalValue, row.TotalCostBasis); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &errs.Database{Operation: "intraday snapshot insert", Cause: err}
	}
	return nil
}

// DeleteIntradayBefore prunes intraday rows at or before the cutoff.
func (r *Repository) DeleteIntradayBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM wallet_intraday_snapshots WHERE snapshot_at <= ?",
		cutoff.Unix(),
	)
	if err != nil {
		return 0, &errs.Database{Operation: "intraday snapshot prune", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &errs.Database{Operation: "intraday snapshot prune", Cause: err}
	}
	return n, nil
}

// DailySince returns one wallet's daily rows on or after startDate,
// ascending by date.
func (r *Repository) DailySince(ctx context.Context, walletID, startDate string) ([]DailySnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, snapshot_date, total_value, total_cost_basis
		FROM wallet_daily_snapshots
		WHERE wallet_id = ? AND snapshot_date >= ?
		ORDER BY snapshot_date`,
		walletID, startDate,
	)
	if err != nil {
		return nil, &errs.Database{Operation: "daily snapshot select", Cause: err}
	}
	defer rows.Close()

	out := []DailySnapshot{}
	for rows.Next() {
		var s DailySnapshot
		if err := rows.Scan(&s.ID, &s.WalletID, &s.SnapshotDate, &s.TotalValue, &s.TotalCostBasis); err != nil {
			return nil, &errs.Database{Operation: "daily snapshot select", Cause: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "daily snapshot select", Cause: err}
	}
	return out, nil
}

// IntradaySince returns one wallet's intraday rows at or after the given
// instant, ascending by time.
func (r *Repository) IntradaySince(ctx context.Context, walletID string, since time.Time) ([]IntradaySnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, snapshot_at, total_value, total_cost_basis
		FROM wallet_intraday_snapshots
		WHERE wallet_id = ? AND snapshot_at >= ?
		ORDER BY snapshot_at`,
		walletID, since.Unix(),
	)
	if err != nil {
		return nil, &errs.Database{Operation: "intraday snapshot select", Cause: err}
	}
	defer rows.Close()

	out := []IntradaySnapshot{}
	for rows.Next() {
		var s IntradaySnapshot
		var at int64
		if err := rows.Scan(&s.ID, &s.WalletID, &at, &s.TotalValue, &s.TotalCostBasis); err != nil {
			return nil, &errs.Database{Operation: "intraday snapshot select", Cause: err}
		}
		s.SnapshotAt = time.Unix(at, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "intraday snapshot select", Cause: err}
	}
	return out, nil
}
