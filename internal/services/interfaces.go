package services

import (
	"context"

	"github.com/tropicaldog17/folio/internal/models"
)

// QuoteSource is the remote market data provider.
type QuoteSource interface {
	ListCoins(ctx context.Context) ([]models.Coin, error)
	FindBySymbol(ctx context.Context, symbol string) (*models.Coin, error)
	FetchSpotPrices(ctx context.Context, ids []string, currency string) (map[string]models.Quote, error)
	FetchHistoricalChart(ctx context.Context, id string, days int, currency string) ([]models.ChartPoint, error)
	FetchCoinDetails(ctx context.Context, id string) (*models.CoinDetails, error)
	SearchCoins(ctx context.Context, query string) []models.CoinSearchResult
}

// CatalogCache stores the coin catalog between requests. Implementations log their
// own failures and report them as a miss.
type CatalogCache interface {
	GetCatalog(ctx context.Context) ([]models.Coin, bool)
	SetCatalog(ctx context.Context, coins []models.Coin)
}

// PortfolioStore is the part of the store client the portfolio flow reads.
type PortfolioStore interface {
	AuthenticatedUserID(ctx context.Context) (string, error)
	ListPortfolioItems(ctx context.Context, ownerID string) ([]*models.PortfolioItem, error)
}

// ProjectLister is the part of the store client the statistics flow reads.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]*models.Project, error)
}

// PortfolioService aggregates portfolio rows with live quotes.
type PortfolioService interface {
	Load(ctx context.Context) models.PortfolioSnapshot
	Refresh(ctx context.Context) models.PortfolioSnapshot
	Snapshot() (models.PortfolioSnapshot, bool)
}

// ProjectStatsService summarizes the signed-in user's projects.
type ProjectStatsService interface {
	Load(ctx context.Context) models.ProjectStats
	Refresh(ctx context.Context) models.ProjectStats
	Snapshot() (models.ProjectStats, bool)
}
