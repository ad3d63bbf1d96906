package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/models"
)

type fakePortfolioStore struct {
	userID   string
	items    []*models.PortfolioItem
	err      error
	gotOwner string
}

func (f *fakePortfolioStore) AuthenticatedUserID(context.Context) (string, error) {
	if f.userID == "" {
		return "", apperrors.ErrAuthenticationRequired
	}
	return f.userID, nil
}

func (f *fakePortfolioStore) ListPortfolioItems(_ context.Context, ownerID string) ([]*models.PortfolioItem, error) {
	f.gotOwner = ownerID
	return f.items, f.err
}

type fakeQuotes struct {
	QuoteSource
	quotes map[string]models.Quote
	err    error
	calls  int
	gotIDs []string
}

func (f *fakeQuotes) FetchSpotPrices(_ context.Context, ids []string, _ string) (map[string]models.Quote, error) {
	f.calls++
	f.gotIDs = ids
	return f.quotes, f.err
}

func nullDec(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func btcRow() *models.PortfolioItem {
	return &models.PortfolioItem{
		ID:        "row-1",
		CoinID:    "bitcoin",
		Name:      "Bitcoin",
		Symbol:    "btc",
		Quantity:  decimal.NewFromInt(2),
		LastPrice: nullDec(100),
	}
}

func TestPortfolioService_MergesQuotes(t *testing.T) {
	store := &fakePortfolioStore{userID: "u1", items: []*models.PortfolioItem{btcRow()}}
	quotes := &fakeQuotes{quotes: map[string]models.Quote{
		"bitcoin": {CoinID: "bitcoin", Price: nullDec(150), Change24h: nullDec(5)},
	}}
	svc := NewPortfolioService(store, quotes, zap.NewNop())

	snap := svc.Load(context.Background())
	require.False(t, snap.Degraded)
	require.Equal(t, "u1", store.gotOwner)
	require.Len(t, snap.Assets, 1)

	a := snap.Assets[0]
	require.Equal(t, "row-1", a.ID)
	require.Equal(t, "BTC", a.Symbol)
	require.True(t, a.Price.Equal(decimal.NewFromInt(150)))
	require.True(t, a.Change24h.Equal(decimal.NewFromInt(5)))
	require.True(t, a.Value.Equal(decimal.NewFromInt(300)))
	require.True(t, snap.TotalValue.Equal(decimal.NewFromInt(300)))

	got, ok := svc.Snapshot()
	require.True(t, ok)
	require.Equal(t, snap, got)
}

func TestPortfolioService_QuoteFailureUsesLastPrice(t *testing.T) {
	store := &fakePortfolioStore{items: []*models.PortfolioItem{btcRow()}}
	quotes := &fakeQuotes{err: &apperrors.NetworkError{Endpoint: "/simple/price", StatusCode: 503}}
	svc := NewPortfolioService(store, quotes, zap.NewNop())

	snap := svc.Load(context.Background())
	require.True(t, snap.Degraded)
	require.Empty(t, store.gotOwner)
	require.Len(t, snap.Assets, 1)
	a := snap.Assets[0]
	require.True(t, a.Price.Equal(decimal.NewFromInt(100)))
	require.True(t, a.Change24h.IsZero())
	require.True(t, a.Value.Equal(decimal.NewFromInt(200)))
}

func TestPortfolioService_EmptyRowsSkipQuotes(t *testing.T) {
	quotes := &fakeQuotes{}
	svc := NewPortfolioService(&fakePortfolioStore{}, quotes, zap.NewNop())

	_, ok := svc.Snapshot()
	require.False(t, ok)

	snap := svc.Refresh(context.Background())
	require.False(t, snap.Degraded)
	require.NotNil(t, snap.Assets)
	require.Empty(t, snap.Assets)
	require.Zero(t, quotes.calls)
}

func TestPortfolioService_StoreFailureIsDegraded(t *testing.T) {
	store := &fakePortfolioStore{err: errors.New("connection refused")}
	quotes := &fakeQuotes{}
	svc := NewPortfolioService(store, quotes, zap.NewNop())

	snap := svc.Load(context.Background())
	require.True(t, snap.Degraded)
	require.Contains(t, snap.Reason, "connection refused")
	require.Empty(t, snap.Assets)
	require.Zero(t, quotes.calls)
}

func TestPortfolioService_FallbacksAndDistinctIDs(t *testing.T) {
	manual := &models.PortfolioItem{CoinID: "manual-abc-1", Symbol: "abc", Quantity: decimal.NewFromInt(3)}
	second := btcRow()
	second.ID = "row-2"
	noCoin := &models.PortfolioItem{ID: "row-3", Name: "Cash", Symbol: "usd", Quantity: decimal.NewFromInt(1), LastPrice: nullDec(1)}
	store := &fakePortfolioStore{items: []*models.PortfolioItem{btcRow(), manual, second, noCoin}}
	quotes := &fakeQuotes{quotes: map[string]models.Quote{"bitcoin": {Price: nullDec(10)}}}
	svc := NewPortfolioService(store, quotes, zap.NewNop())

	snap := svc.Load(context.Background())
	require.Equal(t, []string{"bitcoin", "manual-abc-1"}, quotes.gotIDs)
	require.Len(t, snap.Assets, 4)

	m := snap.Assets[1]
	require.Equal(t, "manual-abc-1", m.ID)
	require.Equal(t, "manual-abc-1", m.Name)
	require.True(t, m.Price.IsZero())
	require.True(t, m.Value.IsZero())

	require.True(t, snap.TotalValue.Equal(decimal.NewFromInt(41)))
}
