package wallets

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletfolio/internal/auth"
	"walletfolio/internal/database"
	"walletfolio/internal/errs"
	"walletfolio/internal/quotes"
	"walletfolio/internal/valuation"
)

type staticLots struct {
	lots []valuation.Position
}

func (s staticLots) LotsForWallet(context.Context, string) ([]valuation.Position, error) {
	return s.lots, nil
}

type staticBook struct {
	prices   map[string]float64
	failures []quotes.PriceFetchFailure
	groups   map[quotes.Venue][]string
}

func (s *staticBook) Aggregate(_ context.Context, groups map[quotes.Venue][]string) (quotes.PriceBook, error) {
	s.groups = groups
	return quotes.PriceBook{Prices: s.prices, Failures: s.failures}, nil
}

type fixture struct {
	db      *database.DB
	service *Service
	book    *staticBook
	lots    *staticLots
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "wallets.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec("INSERT INTO users (id, email) VALUES ('user-1', 'u@example.com'), ('user-2', 'v@example.com')")
	require.NoError(t, err)

	book := &staticBook{prices: map[string]float64{}}
	lots := &staticLots{}
	repo := NewRepository(db.Conn(), zerolog.Nop())
	service := NewService(repo, lots, book, zerolog.Nop())

	return &fixture{db: db, service: service, book: book, lots: lots}
}

func userCtx(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func TestCreateWallet(t *testing.T) {
	f := setup(t)

	w, err := f.service.Create(userCtx("user-1"), "  Savings  ", CurrencyUSD)
	require.NoError(t, err)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "Savings", w.Name, "name is trimmed")
	assert.Equal(t, CurrencyUSD, w.Currency)

	got, err := f.service.Get(userCtx("user-1"), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}

func TestCreateWalletUnauthenticated(t *testing.T) {
	f := setup(t)

	_, err := f.service.Create(context.Background(), "Savings", CurrencyUSD)
	var authErr *errs.Unauthenticated
	require.True(t, errors.As(err, &authErr))
}

func TestCreateWalletValidation(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	_, err := f.service.Create(ctx, "", CurrencyUSD)
	var valErr *errs.Validation
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "name", valErr.Field)

	_, err = f.service.Create(ctx, strings.Repeat("x", 51), CurrencyUSD)
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "Wallet name can't be longer than 50 characters!", valErr.Message)

	// 50 chars is still fine
	_, err = f.service.Create(ctx, strings.Repeat("x", 50), CurrencyUSD)
	assert.NoError(t, err)

	_, err = f.service.Create(ctx, "Savings", "EUR")
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "Please select a valid currency (USD or PLN)", valErr.Message)
}

func TestGetWalletScopedToOwner(t *testing.T) {
	f := setup(t)

	w, err := f.service.Create(userCtx("user-1"), "Mine", CurrencyUSD)
	require.NoError(t, err)

	_, err = f.service.Get(userCtx("user-2"), w.ID)
	var nfErr *errs.NotFound
	require.True(t, errors.As(err, &nfErr), "another user's wallet reads as not found")
	assert.Equal(t, "wallet", nfErr.Resource)
}

func TestRenameWallet(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	w, err := f.service.Create(ctx, "Old", CurrencyUSD)
	require.NoError(t, err)

	require.NoError(t, f.service.Rename(ctx, w.ID, "New"))

	got, err := f.service.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	err = f.service.Rename(ctx, "missing", "New")
	var nfErr *errs.NotFound
	assert.True(t, errors.As(err, &nfErr))
}

func TestDeleteWalletCascades(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	w, err := f.service.Create(ctx, "Doomed", CurrencyPLN)
	require.NoError(t, err)

	_, err = f.db.Conn().Exec(`
		INSERT INTO positions (id, wallet_id, company_symbol, company_name, quantity, price_per_share, created_at)
		VALUES ('p1', ?, 'CDR.WA', 'CD Projekt', 2, 100, '2026-01-01T00:00:00Z')`, w.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, w.ID))

	var n int
	require.NoError(t, f.db.Conn().QueryRow("SELECT COUNT(*) FROM positions").Scan(&n))
	assert.Zero(t, n, "positions cascade with the wallet")
}

func TestListWithCostBasis(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	w, err := f.service.Create(ctx, "Savings", CurrencyUSD)
	require.NoError(t, err)
	_, err = f.service.Create(userCtx("user-2"), "Other", CurrencyUSD)
	require.NoError(t, err)

	_, err = f.db.Conn().Exec(`
		INSERT INTO positions (id, wallet_id, company_symbol, company_name, quantity, price_per_share, created_at)
		VALUES ('p1', ?, 'AAA', 'Alpha', 10, 50, '2026-01-01T00:00:00Z'),
		       ('p2', ?, 'BBB', 'Beta', 2, 25, '2026-01-02T00:00:00Z')`, w.ID, w.ID)
	require.NoError(t, err)

	summaries, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1, "only own wallets are listed")
	assert.Equal(t, 550.0, summaries[0].TotalCostBasis)
	assert.Equal(t, 2, summaries[0].PositionCount)
}

func TestValuateWallet(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	w, err := f.service.Create(ctx, "Savings", CurrencyUSD)
	require.NoError(t, err)

	f.lots.lots = []valuation.Position{{Symbol: "AAA", Quantity: 10, PricePerShare: 50}}
	f.book.prices = map[string]float64{"AAA": 55}

	result, err := f.service.Valuate(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, map[quotes.Venue][]string{quotes.VenueUS: {"AAA"}}, f.book.groups,
		"USD wallet quotes on the US venue")
	assert.Equal(t, 550.0, result.Valuation.TotalCurrentValue)
	assert.Equal(t, 500.0, result.Valuation.TotalCostBasis)
	assert.True(t, result.Valuation.HasAnyPrice)
	assert.Empty(t, result.Failures)
}

func TestValuateWalletPLNUsesWAVenue(t *testing.T) {
	f := setup(t)
	ctx := userCtx("user-1")

	w, err := f.service.Create(ctx, "Polish", CurrencyPLN)
	require.NoError(t, err)

	f.lots.lots = []valuation.Position{{Symbol: "CDR.WA", Quantity: 2, PricePerShare: 100}}
	f.book.failures = []quotes.PriceFetchFailure{{Symbol: "CDR.WA", Reason: "No data available"}}

	result, err := f.service.Valuate(ctx, w.ID)
	require.NoError(t, err)

	_, hasWA := f.book.groups[quotes.VenueWA]
	assert.True(t, hasWA, "PLN wallet quotes on the WA venue")
	assert.False(t, result.Valuation.HasAnyPrice)
	assert.Equal(t, 200.0, result.Valuation.TotalCurrentValue, "falls back to cost basis")
	require.Len(t, result.Failures, 1)
}
