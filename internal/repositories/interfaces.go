package repositories

import (
	"context"

	"github.com/tropicaldog17/folio/internal/models"
)

// ProjectRepository defines the row operations on the projects table. Every
// operation carries the owner predicate; the store never relies on row-level
// security alone.
type ProjectRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.Project, error)
	Delete(ctx context.Context, id, userID string) error
}

// PortfolioItemRepository defines the row operations on the portfolio_items table.
// A nil owner selects public rows (user_id IS NULL).
type PortfolioItemRepository interface {
	List(ctx context.Context, userID *string) ([]*models.PortfolioItem, error)
	Create(ctx context.Context, item *models.PortfolioItem) (*models.PortfolioItem, error)
	Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.PortfolioItem, error)
	Delete(ctx context.Context, id, userID string) error
}
