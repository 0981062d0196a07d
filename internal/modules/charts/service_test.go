package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletfolio/internal/errs"
	"walletfolio/internal/modules/snapshots"
	"walletfolio/internal/modules/wallets"
)

type fakeReader struct {
	daily        []snapshots.DailySnapshot
	intraday     []snapshots.IntradaySnapshot
	gotStartDate string
	gotSince     time.Time
}

func (f *fakeReader) DailySince(_ context.Context, _ string, startDate string) ([]snapshots.DailySnapshot, error) {
	f.gotStartDate = startDate
	return f.daily, nil
}

func (f *fakeReader) IntradaySince(_ context.Context, _ string, since time.Time) ([]snapshots.IntradaySnapshot, error) {
	f.gotSince = since
	return f.intraday, nil
}

type fakeWallets struct {
	wallet *wallets.Wallet
	err    error
}

func (f *fakeWallets) Get(context.Context, string) (*wallets.Wallet, error) {
	return f.wallet, f.err
}

func newTestService(reader *fakeReader, owner *fakeWallets, now time.Time) *Service {
	s := NewService(reader, owner, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

var testNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func ownedWallet() *fakeWallets {
	return &fakeWallets{wallet: &wallets.Wallet{ID: "w1", Currency: "USD"}}
}

func TestReadSeriesIntraday(t *testing.T) {
	reader := &fakeReader{intraday: []snapshots.IntradaySnapshot{
		{WalletID: "w1", SnapshotAt: testNow.Add(-2 * time.Hour), TotalValue: 100, TotalCostBasis: 90},
		{WalletID: "w1", SnapshotAt: testNow.Add(-time.Hour), TotalValue: 110, TotalCostBasis: 90},
	}}
	s := newTestService(reader, ownedWallet(), testNow)

	points, err := s.ReadSeries(context.Background(), "w1", Range1D)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), reader.gotSince,
		"1D reads from UTC midnight")
	require.Len(t, points, 2)
	assert.Equal(t, testNow.Add(-2*time.Hour).UnixMilli(), points[0].Timestamp)
	assert.Empty(t, points[0].Label, "intraday points carry no label")
	assert.Equal(t, 110.0, points[1].TotalValue)
}

func TestReadSeriesDaily(t *testing.T) {
	reader := &fakeReader{daily: []snapshots.DailySnapshot{
		{WalletID: "w1", SnapshotDate: "2026-03-10", TotalValue: 100, TotalCostBasis: 90},
		{WalletID: "w1", SnapshotDate: "2026-03-11", TotalValue: 105, TotalCostBasis: 90},
	}}
	s := newTestService(reader, ownedWallet(), testNow)

	points, err := s.ReadSeries(context.Background(), "w1", Range1W)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-08", reader.gotStartDate, "1W starts seven days back")
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-10", points[0].Label)
	assert.Equal(t,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli(),
		points[0].Timestamp, "daily timestamp is the date at UTC midnight")
}

func TestReadSeriesRangeOffsets(t *testing.T) {
	cases := []struct {
		r     Range
		start string
	}{
		{Range1W, "2026-03-08"},
		{Range1M, "2026-02-15"},
		{Range3M, "2025-12-15"},
		{Range6M, "2025-09-15"},
		{Range1YR, "2025-03-15"},
	}
	for _, tc := range cases {
		t.Run(string(tc.r), func(t *testing.T) {
			reader := &fakeReader{}
			s := newTestService(reader, ownedWallet(), testNow)

			_, err := s.ReadSeries(context.Background(), "w1", tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.start, reader.gotStartDate)
		})
	}
}

func TestReadSeriesUnknownRange(t *testing.T) {
	s := newTestService(&fakeReader{}, ownedWallet(), testNow)

	_, err := s.ReadSeries(context.Background(), "w1", Range("2D"))
	var valErr *errs.Validation
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "range", valErr.Field)
}

func TestReadSeriesEmptyIsValid(t *testing.T) {
	s := newTestService(&fakeReader{}, ownedWallet(), testNow)

	points, err := s.ReadSeries(context.Background(), "w1", Range1M)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestReadSeriesOwnershipChecked(t *testing.T) {
	owner := &fakeWallets{err: &errs.NotFound{Resource: "wallet", ID: "w1"}}
	s := newTestService(&fakeReader{}, owner, testNow)

	_, err := s.ReadSeries(context.Background(), "w1", Range1D)
	var nfErr *errs.NotFound
	require.True(t, errors.As(err, &nfErr))
}
