package positions

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
)

// Repository handles position persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new position repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// Insert adds a new lot.
func (r *Repository) Insert(ctx context.Context, p Position) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO positions (id, wallet_id, company_symbol, company_name, quantity, price_per_share, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.WalletID, p.CompanySymbol, p.CompanyName, p.Quantity, p.PricePerShare,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &errs.Database{Operation: "position insert", Cause: err}
	}
	return nil
}

// Delete removes a lot scoped to its wallet. Returns false when no row
// matched.
func (r *Repository) Delete(ctx context.Context, id, walletID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM positions WHERE id = ? AND wallet_id = ?",
		id, walletID,
	)
	if err != nil {
		return false, &errs.Database{Operation: "position delete", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &errs.Database{Operation: "position delete", Cause: err}
	}
	return n > 0, nil
}

// ListByWallet returns all lots in one wallet, oldest first.
func (r *Repository) ListByWallet(ctx context.Context, walletID string) ([]Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, company_symbol, company_name, quantity, price_per_share, created_at
		FROM positions WHERE wallet_id = ? ORDER BY created_at, id`,
		walletID,
	)
	if err != nil {
		return nil, &errs.Database{Operation: "position list", Cause: err}
	}
	defer rows.Close()

	out := []Position{}
	for rows.Next() {
		var p Position
		var createdAt string
		if err := rows.Scan(&p.ID, &p.WalletID, &p.CompanySymbol, &p.CompanyName,
			&p.Quantity, &p.PricePerShare, &createdAt); err != nil {
			return nil, &errs.Database{Operation: "position list", Cause: err}
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "position list", Cause: err}
	}
	return out, nil
}

// ListAllWithWallets returns every position joined with its wallet's
// currency, one flat row per lot. Wallets without positions do not appear;
// the rollup only considers wallets that hold something.
func (r *Repository) ListAllWithWallets(ctx context.Context) ([]WalletPosition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.currency, p.company_symbol, p.quantity, p.price_per_share
		FROM wallets w
		INNER JOIN positions p ON p.wallet_id = w.id
		ORDER BY w.id, p.created_at`)
	if err != nil {
		return nil, &errs.Database{Operation: "wallet position join", Cause: err}
	}
	defer rows.Close()

	out := []WalletPosition{}
	for rows.Next() {
		var wp WalletPosition
		if err := rows.Scan(&wp.WalletID, &wp.WalletCurrency, &wp.CompanySymbol,
			&wp.Quantity, &wp.PricePerShare); err != nil {
			return nil, &errs.Database{Operation: "wallet position join", Cause: err}
		}
		out = append(out, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "wallet position join", Cause: err}
	}
	return out, nil
}
