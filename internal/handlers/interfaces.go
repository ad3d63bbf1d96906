package handlers

import (
	"context"

	"github.com/tropicaldog17/folio/internal/auth"
	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/store"
)

// StoreClient is the store surface the HTTP API uses. *store.Client satisfies it.
type StoreClient interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*auth.Session, error)

	ListProjects(ctx context.Context) ([]*models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	SubscribeToProjectChanges(ctx context.Context, handler store.ProjectChangeHandler) (func() error, error)

	ListPortfolioItems(ctx context.Context, ownerID string) ([]*models.PortfolioItem, error)
	AddPortfolioItem(ctx context.Context, item models.PortfolioItem) (*models.PortfolioItem, error)
	UpdatePortfolioItem(ctx context.Context, id string, patch models.PortfolioItemPatch) (*models.PortfolioItem, error)
	DeletePortfolioItem(ctx context.Context, id string) error
}

var _ StoreClient = (*store.Client)(nil)
