package positions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/wallets"
	"walletfolio/internal/valuation"
)

// WalletGetter resolves a wallet for the session user. The wallet service
// implements it; the indirection keeps construction order flexible.
type WalletGetter interface {
	Get(ctx context.Context, walletID string) (*wallets.Wallet, error)
}

// Service implements position operations. Wallet ownership is resolved
// through the wallet service before any read or write.
type Service struct {
	repo    *Repository
	wallets WalletGetter
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a new position service
func NewService(repo *Repository, wallets WalletGetter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		wallets: wallets,
		log:     log.With().Str("service", "positions").Logger(),
		now:     time.Now,
	}
}

// Add validates and persists a new lot in the given wallet.
func (s *Service) Add(ctx context.Context, walletID, symbol, name string, quantity, pricePerShare float64) (*Position, error) {
	if _, err := s.wallets.Get(ctx, walletID); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	name = strings.TrimSpace(name)
	if symbol == "" {
		return nil, &errs.Validation{Field: "companySymbol", Message: "Company symbol is required"}
	}
	if name == "" {
		return nil, &errs.Validation{Field: "companyName", Message: "Company name is required"}
	}
	if quantity < 0 {
		return nil, &errs.Validation{Field: "quantity", Message: "Quantity can't be negative"}
	}
	if pricePerShare < 0 {
		return nil, &errs.Validation{Field: "pricePerShare", Message: "Price per share can't be negative"}
	}

	p := Position{
		ID:            uuid.New().String(),
		WalletID:      walletID,
		CompanySymbol: symbol,
		CompanyName:   name,
		Quantity:      quantity,
		PricePerShare: pricePerShare,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("wallet_id", walletID).Str("symbol", symbol).Msg("Position added")
	return &p, nil
}

// Delete removes a lot from the given wallet.
func (s *Service) Delete(ctx context.Context, walletID, positionID string) error {
	if _, err := s.wallets.Get(ctx, walletID); err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, positionID, walletID)
	if err != nil {
		return err
	}
	if !ok {
		return &errs.NotFound{Resource: "position", ID: positionID}
	}
	return nil
}

// List returns all lots in the given wallet.
func (s *Service) List(ctx context.Context, walletID string) ([]Position, error) {
	if _, err := s.wallets.Get(ctx, walletID); err != nil {
		return nil, err
	}
	return s.repo.ListByWallet(ctx, walletID)
}

// LotsForWallet returns the wallet's lots as valuation inputs. Callers are
// expected to have resolved ownership already; the wallet service uses
// this as its PositionSource.
func (s *Service) LotsForWallet(ctx context.Context, walletID string) ([]valuation.Position, error) {
	rows, err := s.repo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	lots := make([]valuation.Position, len(rows))
	for i, row := range rows {
		lots[i] = valuation.Position{
			Symbol:        row.CompanySymbol,
			Quantity:      row.Quantity,
			PricePerShare: row.PricePerShare,
		}
	}
	return lots, nil
}
