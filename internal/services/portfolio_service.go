package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
)

type portfolioService struct {
	store    PortfolioStore
	quotes   QuoteSource
	currency string
	log      *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	snapshot models.PortfolioSnapshot
	loaded   bool
}

// NewPortfolioService returns a flow that merges stored portfolio rows with USD spot quotes.
func NewPortfolioService(store PortfolioStore, quotes QuoteSource, log *zap.Logger) PortfolioService {
	return &portfolioService{
		store:    store,
		quotes:   quotes,
		currency: DefaultQuoteCurrency,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Load runs one aggregation pass and replaces the current snapshot. It never fails:
// store and quote failures are reported on the snapshot.
func (s *portfolioService) Load(ctx context.Context) models.PortfolioSnapshot {
	snap := s.aggregate(ctx)
	s.mu.Lock()
	s.snapshot = snap
	s.loaded = true
	s.mu.Unlock()
	return snap
}

func (s *portfolioService) Refresh(ctx context.Context) models.PortfolioSnapshot {
	return s.Load(ctx)
}

// Snapshot returns the last loaded snapshot and whether any pass has run.
func (s *portfolioService) Snapshot() (models.PortfolioSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.loaded
}

func (s *portfolioService) aggregate(ctx context.Context) models.PortfolioSnapshot {
	snap := models.PortfolioSnapshot{
		Assets:     []models.EnrichedAsset{},
		TotalValue: decimal.Zero,
		LoadedAt:   s.now().UTC(),
	}

	ownerID, err := s.store.AuthenticatedUserID(ctx)
	if err != nil {
		ownerID = ""
	}

	items, err := s.store.ListPortfolioItems(ctx, ownerID)
	if err != nil {
		s.log.Warn("failed to load portfolio items", zap.Error(err))
		snap.Degraded = true
		snap.Reason = "portfolio items unavailable: " + err.Error()
		return snap
	}
	if len(items) == 0 {
		return snap
	}

	ids := distinctCoinIDs(items)
	quotes := map[string]models.Quote{}
	if len(ids) > 0 {
		fetched, err := s.quotes.FetchSpotPrices(ctx, ids, s.currency)
		if err != nil {
			s.log.Warn("price fetch failed, using stored prices",
				zap.Int("coins", len(ids)),
				zap.Error(err),
			)
			snap.Degraded = true
			snap.Reason = "live prices unavailable: " + err.Error()
		} else {
			quotes = fetched
		}
	}

	for _, it := range items {
		asset := enrichItem(it, quotes)
		snap.Assets = append(snap.Assets, asset)
		snap.TotalValue = snap.TotalValue.Add(asset.Value)
	}
	return snap
}

// enrichItem merges one row with its quote. Price falls back to the stored last
// price, then zero; change falls back to zero.
func enrichItem(it *models.PortfolioItem, quotes map[string]models.Quote) models.EnrichedAsset {
	q, ok := quotes[it.CoinID]

	price := decimal.Zero
	switch {
	case ok && q.Price.Valid:
		price = q.Price.Decimal
	case it.LastPrice.Valid:
		price = it.LastPrice.Decimal
	}
	change := decimal.Zero
	if ok && q.Change24h.Valid {
		change = q.Change24h.Decimal
	}

	id := it.ID
	if id == "" {
		id = it.CoinID
	}
	name := it.Name
	if name == "" {
		name = it.CoinID
	}

	return models.EnrichedAsset{
		ID:        id,
		Name:      name,
		Symbol:    strings.ToUpper(it.Symbol),
		Price:     price,
		Change24h: change,
		Quantity:  it.Quantity,
		Value:     price.Mul(it.Quantity),
		Item:      *it,
	}
}

func distinctCoinIDs(items []*models.PortfolioItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.CoinID == "" {
			continue
		}
		if _, dup := seen[it.CoinID]; dup {
			continue
		}
		seen[it.CoinID] = struct{}{}
		ids = append(ids, it.CoinID)
	}
	return ids
}
