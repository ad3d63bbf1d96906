// Package app builds the long-lived collaborators shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/cache"
	"github.com/tropicaldog17/folio/internal/config"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/handlers"
	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/services"
	"github.com/tropicaldog17/folio/internal/store"
)

type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Store     *store.Client
	Quotes    *services.CoinGeckoQuoteSource
	Portfolio services.PortfolioService
	Stats     services.ProjectStatsService

	catalog *cache.RedisCatalogCache
}

// New wires the application. Missing or placeholder store credentials leave the
// store uninitialized; store-backed features then report themselves unavailable
// while quote features keep working.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, Log: log}

	opts := []services.CoinGeckoOption{
		services.WithRateLimit(cfg.Quotes.RatePerSec, cfg.Quotes.Burst),
	}
	if cfg.Quotes.APIKey != "" {
		opts = append(opts, services.WithAPIKey(cfg.Quotes.APIKey))
	}
	if cfg.Cache.RedisURL != "" {
		catalog, err := cache.NewRedisCatalogCache(cfg.Cache.RedisURL, cfg.Cache.CatalogTTL, log)
		if err != nil {
			log.Warn("coin catalog cache unavailable, continuing without it", zap.Error(err))
		} else {
			a.catalog = catalog
			opts = append(opts, services.WithCatalogCache(catalog))
		}
	}
	a.Quotes = services.NewCoinGeckoQuoteSource(cfg.Quotes.BaseURL, cfg.Quotes.Timeout, log, opts...)

	authHTTP := &http.Client{Timeout: cfg.Quotes.Timeout}
	a.Store = store.NewClient(store.NewDialer(cfg.Store.DatabaseURL, authHTTP, log), log)
	if _, err := a.Store.Initialize(ctx, cfg.Store.URL, cfg.Store.AnonKey); err != nil {
		var cfgErr *apperrors.ConfigurationError
		if !errors.As(err, &cfgErr) {
			a.Close()
			return nil, err
		}
		log.Warn("store credentials missing, store features disabled", zap.Strings("missing", cfgErr.Missing))
	}

	a.Portfolio = services.NewPortfolioService(a.Store, a.Quotes, log)
	a.Stats = services.NewProjectStatsService(a.Store, log)
	return a, nil
}

// Router builds the HTTP API.
func (a *App) Router() http.Handler {
	var health func() error
	if a.Store.Initialized() {
		health = a.Store.Health
	}
	return handlers.NewRouter(handlers.Deps{
		Store:     a.Store,
		Portfolio: a.Portfolio,
		Stats:     a.Stats,
		Quotes:    a.Quotes,
		Health:    health,
		Log:       a.Log,
	})
}

func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.catalog != nil {
		errs = append(errs, a.catalog.Close())
	}
	return errors.Join(errs...)
}
