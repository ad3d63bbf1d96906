package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/services"
)

type PortfolioHandler struct {
	portfolio services.PortfolioService
	store     StoreClient
	quotes    services.QuoteSource
	log       *zap.Logger
}

func NewPortfolioHandler(portfolio services.PortfolioService, store StoreClient, quotes services.QuoteSource, log *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolio: portfolio, store: store, quotes: quotes, log: logger.OrNop(log)}
}

// HandlePortfolio handles GET /api/portfolio
// @Summary Get portfolio snapshot
// @Description Returns the last aggregated snapshot, loading it on first use
// @Tags portfolio
// @Produce json
// @Success 200 {object} models.PortfolioSnapshot
// @Router /portfolio [get]
func (h *PortfolioHandler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.portfolio.Snapshot()
	if !ok {
		snap = h.portfolio.Load(r.Context())
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleRefresh handles POST /api/portfolio/refresh
// @Summary Refresh portfolio snapshot
// @Tags portfolio
// @Produce json
// @Success 200 {object} models.PortfolioSnapshot
// @Router /portfolio/refresh [post]
func (h *PortfolioHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.portfolio.Refresh(r.Context()))
}

// HandleListItems handles GET /api/portfolio/items
// @Summary List portfolio items
// @Tags portfolio
// @Produce json
// @Param owner query string false "Owner user id; defaults to the signed-in user, or public items"
// @Success 200 {array} models.PortfolioItem
// @Failure 503 {string} string "Store unavailable"
// @Router /portfolio/items [get]
func (h *PortfolioHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListPortfolioItems(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreateItem handles POST /api/portfolio/items. With resolve=true an item
// without coin_id is matched against the quote source catalog by symbol.
// @Summary Add portfolio item
// @Tags portfolio
// @Accept json
// @Produce json
// @Param item body models.PortfolioItem true "Portfolio item"
// @Param resolve query bool false "Resolve coin_id from the symbol"
// @Success 201 {object} models.PortfolioItem
// @Failure 400 {string} string "Bad request"
// @Failure 422 {string} string "Schema mismatch"
// @Router /portfolio/items [post]
func (h *PortfolioHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.PortfolioItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := item.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("resolve") == "true" && strings.TrimSpace(item.CoinID) == "" && h.quotes != nil {
		coin, err := h.quotes.FindBySymbol(r.Context(), item.Symbol)
		if err != nil {
			h.log.Warn("coin lookup failed, storing manual item", zap.String("symbol", item.Symbol), zap.Error(err))
		} else if coin != nil {
			item.CoinID = coin.ID
		}
	}

	created, err := h.store.AddPortfolioItem(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	h.refreshSnapshot(r)
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateItem handles PUT /api/portfolio/items/{id}
// @Summary Update portfolio item
// @Tags portfolio
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param patch body models.PortfolioItemPatch true "Fields to change"
// @Success 200 {object} models.PortfolioItem
// @Failure 401 {string} string "Authentication required"
// @Failure 404 {string} string "Not found"
// @Router /portfolio/items/{id} [put]
func (h *PortfolioHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch models.PortfolioItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.store.UpdatePortfolioItem(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.refreshSnapshot(r)
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteItem handles DELETE /api/portfolio/items/{id}
// @Summary Delete portfolio item
// @Tags portfolio
// @Param id path string true "Item ID"
// @Success 204
// @Failure 401 {string} string "Authentication required"
// @Failure 404 {string} string "Not found"
// @Router /portfolio/items/{id} [delete]
func (h *PortfolioHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePortfolioItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	h.refreshSnapshot(r)
	w.WriteHeader(http.StatusNoContent)
}

// refreshSnapshot re-aggregates after an item mutation. A snapshot that was never
// loaded is left for the next GET /api/portfolio.
func (h *PortfolioHandler) refreshSnapshot(r *http.Request) {
	if _, ok := h.portfolio.Snapshot(); ok {
		h.portfolio.Refresh(r.Context())
	}
}
