package wallets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"walletfolio/internal/auth"
	"walletfolio/internal/errs"
	"walletfolio/internal/quotes"
	"walletfolio/internal/valuation"
)

// PositionSource lists a wallet's positions as valuation lots. Implemented
// by the positions module; an interface here keeps the modules decoupled.
type PositionSource interface {
	LotsForWallet(ctx context.Context, walletID string) ([]valuation.Position, error)
}

// Aggregator resolves prices across quote venues.
type Aggregator interface {
	Aggregate(ctx context.Context, groups map[quotes.Venue][]string) (quotes.PriceBook, error)
}

// WalletValuation is a wallet's live valuation with the fetch failures
// that occurred while pricing it.
type WalletValuation struct {
	Wallet    Wallet                       `json:"wallet"`
	Valuation valuation.PortfolioValuation `json:"valuation"`
	Failures  []quotes.PriceFetchFailure   `json:"failures"`
}

// Service implements wallet operations. Every operation resolves the
// session user first, then ownership, then input, in that order.
type Service struct {
	repo       *Repository
	positions  PositionSource
	aggregator Aggregator
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a new wallet service
func NewService(repo *Repository, positions PositionSource, aggregator Aggregator, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		positions:  positions,
		aggregator: aggregator,
		log:        log.With().Str("service", "wallets").Logger(),
		now:        time.Now,
	}
}

// SetPositionSource attaches the position source after construction. The
// wallet and position services reference each other, so one side is wired
// late.
func (s *Service) SetPositionSource(positions PositionSource) {
	s.positions = positions
}

// Create validates and persists a new wallet for the session user.
func (s *Service) Create(ctx context.Context, name, currency string) (*Wallet, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, &errs.Unauthenticated{}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &errs.Validation{Field: "name", Message: "Wallet name is required"}
	}
	if len(name) > MaxNameLength {
		return nil, &errs.Validation{Field: "name", Message: "Wallet name can't be longer than 50 characters!"}
	}
	if currency != CurrencyUSD && currency != CurrencyPLN {
		return nil, &errs.Validation{Field: "currency", Message: "Please select a valid currency (USD or PLN)"}
	}

	w := Wallet{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Currency:  currency,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	s.log.Info().Str("wallet_id", w.ID).Str("currency", currency).Msg("Wallet created")
	return &w, nil
}

// Get returns one wallet owned by the session user.
func (s *Service) Get(ctx context.Context, walletID string) (*Wallet, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, &errs.Unauthenticated{}
	}

	w, err := s.repo.GetByID(ctx, walletID, userID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, &errs.NotFound{Resource: "wallet", ID: walletID}
	}
	return w, nil
}

// List returns the session user's wallets with cost basis summaries.
func (s *Service) List(ctx context.Context) ([]WalletSummary, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, &errs.Unauthenticated{}
	}
	return s.repo.ListWithCostBasis(ctx, userID)
}

// Rename updates a wallet's display name.
func (s *Service) Rename(ctx context.Context, walletID, name string) error {
	userID := auth.UserID(ctx)
	if userID == "" {
		return &errs.Unauthenticated{}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return &errs.Validation{Field: "name", Message: "Wallet name is required"}
	}
	if len(name) > MaxNameLength {
		return &errs.Validation{Field: "name", Message: "Wallet name can't be longer than 50 characters!"}
	}

	ok, err := s.repo.Rename(ctx, walletID, userID, name)
	if err != nil {
		return err
	}
	if !ok {
		return &errs.NotFound{Resource: "wallet", ID: walletID}
	}
	return nil
}

// Delete removes a wallet and everything under it.
func (s *Service) Delete(ctx context.Context, walletID string) error {
	userID := auth.UserID(ctx)
	if userID == "" {
		return &errs.Unauthenticated{}
	}

	ok, err := s.repo.Delete(ctx, walletID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &errs.NotFound{Resource: "wallet", ID: walletID}
	}

	s.log.Info().Str("wallet_id", walletID).Msg("Wallet deleted")
	return nil
}

// Valuate prices the wallet's positions live and folds them through the
// valuation engine. Symbols that fail to price fall back to cost basis;
// the failures ride along for display.
func (s *Service) Valuate(ctx context.Context, walletID string) (*WalletValuation, error) {
	w, err := s.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}

	lots, err := s.positions.LotsForWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	venue := quotes.VenueForCurrency(w.Currency)
	symbols := make([]string, 0, len(lots))
	for _, lot := range lots {
		symbols = append(symbols, lot.Symbol)
	}

	book, err := s.aggregator.Aggregate(ctx, map[quotes.Venue][]string{venue: symbols})
	if err != nil {
		return nil, err
	}

	failures := book.Failures
	if failures == nil {
		failures = []quotes.PriceFetchFailure{}
	}

	return &WalletValuation{
		Wallet:    *w,
		Valuation: valuation.Valuate(lots, book.Prices),
		Failures:  failures,
	}, nil
}
