package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
)

// PortfolioItem is a persisted holding row. A nil UserID marks a public item.
type PortfolioItem struct {
	ID        string              `json:"id" gorm:"primaryKey;type:text"`
	UserID    *string             `json:"user_id" gorm:"column:user_id;index"`
	CoinID    string              `json:"coin_id" gorm:"column:coin_id"`
	Name      string              `json:"name"`
	Symbol    string              `json:"symbol"`
	Image     *string             `json:"image"`
	Quantity  decimal.Decimal     `json:"quantity" gorm:"type:numeric"`
	AvgPrice  decimal.NullDecimal `json:"avg_price" gorm:"column:avg_price;type:numeric"`
	LastPrice decimal.NullDecimal `json:"last_price" gorm:"column:last_price;type:numeric"`
	CreatedAt *time.Time          `json:"created_at"`
}

func (PortfolioItem) TableName() string { return "portfolio_items" }

// Normalize trims text fields, upper-cases the symbol and assigns a manual coin id
// when the item was entered by hand.
func (p *PortfolioItem) Normalize(now time.Time) {
	p.Name = strings.TrimSpace(p.Name)
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	p.CoinID = strings.TrimSpace(p.CoinID)
	if p.CoinID == "" && p.Symbol != "" {
		p.CoinID = fmt.Sprintf("manual-%s-%d", strings.ToLower(p.Symbol), now.UnixMilli())
	}
	if p.Image != nil {
		img := strings.TrimSpace(*p.Image)
		if img == "" {
			p.Image = nil
		} else {
			p.Image = &img
		}
	}
}

func (p *PortfolioItem) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return &apperrors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	if !p.Quantity.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	if p.AvgPrice.Valid && p.AvgPrice.Decimal.IsNegative() {
		return &apperrors.ErrValidation{Field: "avg_price", Message: "must not be negative"}
	}
	if p.LastPrice.Valid && p.LastPrice.Decimal.IsNegative() {
		return &apperrors.ErrValidation{Field: "last_price", Message: "must not be negative"}
	}
	return nil
}

// InsertPayload returns the column map sent to the row store. Columns can be dropped
// from the map between insert attempts when the remote schema lags behind.
func (p *PortfolioItem) InsertPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"id":         p.ID,
		"coin_id":    p.CoinID,
		"name":       p.Name,
		"symbol":     p.Symbol,
		"image":      p.Image,
		"quantity":   p.Quantity,
		"avg_price":  p.AvgPrice,
		"last_price": p.LastPrice,
	}
	if p.UserID != nil {
		payload["user_id"] = *p.UserID
	}
	if p.CreatedAt != nil {
		payload["created_at"] = *p.CreatedAt
	}
	return payload
}

// PortfolioItemPatch carries the fields of an update; nil fields are left unchanged.
type PortfolioItemPatch struct {
	Name      *string          `json:"name,omitempty"`
	Symbol    *string          `json:"symbol,omitempty"`
	Image     *string          `json:"image,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	AvgPrice  *decimal.Decimal `json:"avg_price,omitempty"`
	LastPrice *decimal.Decimal `json:"last_price,omitempty"`
}

func (p PortfolioItemPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &apperrors.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if p.Symbol != nil && strings.TrimSpace(*p.Symbol) == "" {
		return &apperrors.ErrValidation{Field: "symbol", Message: "must not be empty"}
	}
	if p.Quantity != nil && !p.Quantity.IsPositive() {
		return &apperrors.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	return nil
}

// Updates converts the patch to a column map, upper-casing the symbol.
func (p PortfolioItemPatch) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Name != nil {
		updates["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Symbol != nil {
		updates["symbol"] = strings.ToUpper(strings.TrimSpace(*p.Symbol))
	}
	if p.Image != nil {
		if img := strings.TrimSpace(*p.Image); img != "" {
			updates["image"] = img
		} else {
			updates["image"] = nil
		}
	}
	if p.Quantity != nil {
		updates["quantity"] = *p.Quantity
	}
	if p.AvgPrice != nil {
		updates["avg_price"] = *p.AvgPrice
	}
	if p.LastPrice != nil {
		updates["last_price"] = *p.LastPrice
	}
	return updates
}
