package wallets

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
)

// Repository handles wallet persistence. Every read and write is scoped to
// the owning user; a wallet id alone never grants access.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new wallet repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "wallets").Logger(),
	}
}

// Create inserts a new wallet.
func (r *Repository) Create(ctx context.Context, w Wallet) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO wallets (id, user_id, name, currency, created_at) VALUES (?, ?, ?, ?, ?)",
		w.ID, w.UserID, w.Name, w.Currency, w.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &errs.Database{Operation: "wallet insert", Cause: err}
	}
	return nil
}

// GetByID returns the wallet if it exists and belongs to userID, nil
// otherwise. Missing and not-owned are indistinguishable on purpose.
func (r *Repository) GetByID(ctx context.Context, id, userID string) (*Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, currency, created_at FROM wallets WHERE id = ? AND user_id = ?",
		id, userID,
	)
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.Database{Operation: "wallet select", Cause: err}
	}
	return w, nil
}

// ListByUser returns all wallets owned by userID, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name, currency, created_at FROM wallets WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, &errs.Database{Operation: "wallet list", Cause: err}
	}
	defer rows.Close()

	wallets := []Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, &errs.Database{Operation: "wallet list", Cause: err}
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "wallet list", Cause: err}
	}
	return wallets, nil
}

// ListWithCostBasis returns all wallets owned by userID with their summed
// position cost basis, for the list view.
func (r *Repository) ListWithCostBasis(ctx context.Context, userID string) ([]WalletSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.user_id, w.name, w.currency, w.created_at,
		       COALESCE(SUM(p.quantity * p.price_per_share), 0),
		       COUNT(p.id)
		FROM wallets w
		LEFT JOIN positions p ON p.wallet_id = w.id
		WHERE w.user_id = ?
		GROUP BY w.id
		ORDER BY w.created_at DESC, w.id`,
		userID,
	)
	if err != nil {
		return nil, &errs.Database{Operation: "wallet summary list", Cause: err}
	}
	defer rows.Close()

	summaries := []WalletSummary{}
	for rows.Next() {
		var s WalletSummary
		var createdAt string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Currency, &createdAt,
			&s.TotalCostBasis, &s.PositionCount); err != nil {
			return nil, &errs.Database{Operation: "wallet summary list", Cause: err}
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.Database{Operation: "wallet summary list", Cause: err}
	}
	return summaries, nil
}

// Rename updates the wallet name. Returns false when no owned wallet
// matched the id.
func (r *Repository) Rename(ctx context.Context, id, userID, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE wallets SET name = ? WHERE id = ? AND user_id = ?",
		name, id, userID,
	)
	if err != nil {
		return false, &errs.Database{Operation: "wallet rename", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &errs.Database{Operation: "wallet rename", Cause: err}
	}
	return n > 0, nil
}

// Delete removes the wallet; positions and snapshots cascade.
func (r *Repository) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM wallets WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return false, &errs.Database{Operation: "wallet delete", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &errs.Database{Operation: "wallet delete", Cause: err}
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*Wallet, error) {
	var w Wallet
	var createdAt string
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Currency, &createdAt); err != nil {
		return nil, err
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}
