package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
)

func TestPortfolioItem_NormalizeAssignsManualCoinID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	img := "  "
	item := &PortfolioItem{Name: " Bitcoin ", Symbol: " btc ", Image: &img, Quantity: decimal.NewFromInt(1)}

	item.Normalize(now)

	require.Equal(t, "Bitcoin", item.Name)
	require.Equal(t, "BTC", item.Symbol)
	require.Equal(t, "manual-btc-1700000000123", item.CoinID)
	require.Nil(t, item.Image)
}

func TestPortfolioItem_NormalizeKeepsCoinID(t *testing.T) {
	item := &PortfolioItem{CoinID: "bitcoin", Symbol: "btc"}
	item.Normalize(time.Now())
	require.Equal(t, "bitcoin", item.CoinID)
}

func TestPortfolioItem_Validate(t *testing.T) {
	valid := func() *PortfolioItem {
		return &PortfolioItem{Name: "Ether", Symbol: "ETH", Quantity: decimal.NewFromFloat(1.5)}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		field  string
		mutate func(p *PortfolioItem)
	}{
		{"name", func(p *PortfolioItem) { p.Name = "" }},
		{"symbol", func(p *PortfolioItem) { p.Symbol = " " }},
		{"quantity", func(p *PortfolioItem) { p.Quantity = decimal.Zero }},
		{"quantity", func(p *PortfolioItem) { p.Quantity = decimal.NewFromInt(-2) }},
		{"avg_price", func(p *PortfolioItem) { p.AvgPrice = decimal.NewNullDecimal(decimal.NewFromInt(-1)) }},
	}
	for _, tt := range tests {
		item := valid()
		tt.mutate(item)
		err := item.Validate()
		var ve *apperrors.ErrValidation
		require.ErrorAs(t, err, &ve)
		require.Equal(t, tt.field, ve.Field)
	}
}

func TestPortfolioItem_InsertPayloadOmitsMissingOwner(t *testing.T) {
	item := &PortfolioItem{ID: "a", CoinID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Quantity: decimal.NewFromInt(2)}
	payload := item.InsertPayload()
	_, hasOwner := payload["user_id"]
	require.False(t, hasOwner)
	require.Contains(t, payload, "image")
	require.Contains(t, payload, "avg_price")

	owner := "u1"
	item.UserID = &owner
	require.Equal(t, "u1", item.InsertPayload()["user_id"])
}

func TestPortfolioItemPatch_Updates(t *testing.T) {
	sym := " eth "
	qty := decimal.NewFromInt(3)
	empty := ""
	patch := PortfolioItemPatch{Symbol: &sym, Quantity: &qty, Image: &empty}

	require.NoError(t, patch.Validate())
	updates := patch.Updates()
	require.Equal(t, "ETH", updates["symbol"])
	require.True(t, updates["quantity"].(decimal.Decimal).Equal(qty))
	require.Nil(t, updates["image"])
	require.NotContains(t, updates, "name")

	zero := decimal.Zero
	require.Error(t, PortfolioItemPatch{Quantity: &zero}.Validate())
}
