package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/models"
)

// ListPortfolioItems returns the items of ownerID. With an empty ownerID it returns
// the signed-in user's items, or the public items (no owner) when signed out.
func (c *Client) ListPortfolioItems(ctx context.Context, ownerID string) ([]*models.PortfolioItem, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	if ownerID != "" {
		return h.items.List(ctx, &ownerID)
	}

	uid, err := c.AuthenticatedUserID(ctx)
	switch {
	case err == nil:
		return h.items.List(ctx, &uid)
	case errors.Is(err, apperrors.ErrAuthenticationRequired):
		return h.items.List(ctx, nil)
	default:
		c.log.Warn("session lookup failed, listing public portfolio items", zap.Error(err))
		return h.items.List(ctx, nil)
	}
}

// AddPortfolioItem inserts an item owned by the signed-in user. Signed out, the item
// is inserted without an owner and becomes public.
func (c *Client) AddPortfolioItem(ctx context.Context, item models.PortfolioItem) (*models.PortfolioItem, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	item.Normalize(now)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.ID = c.newID()
	item.CreatedAt = &now
	item.UserID = nil

	uid, err := c.AuthenticatedUserID(ctx)
	if err == nil {
		item.UserID = &uid
	} else {
		c.log.Warn("no authenticated user, inserting public portfolio item",
			zap.String("coin_id", item.CoinID),
			zap.Error(err),
		)
	}
	return h.items.Create(ctx, &item)
}

// UpdatePortfolioItem applies patch to an item owned by the signed-in user.
func (c *Client) UpdatePortfolioItem(ctx context.Context, id string, patch models.PortfolioItemPatch) (*models.PortfolioItem, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}
	return h.items.Update(ctx, id, uid, patch.Updates())
}

// DeletePortfolioItem removes an item owned by the signed-in user.
func (c *Client) DeletePortfolioItem(ctx context.Context, id string) error {
	h, err := c.getHandle()
	if err != nil {
		return err
	}
	uid, err := c.AuthenticatedUserID(ctx)
	if err != nil {
		return err
	}
	return h.items.Delete(ctx, id, uid)
}
