package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tropicaldog17/folio/internal/services"
)

type CoinHandler struct {
	quotes services.QuoteSource
}

func NewCoinHandler(quotes services.QuoteSource) *CoinHandler {
	return &CoinHandler{quotes: quotes}
}

// HandleSearch handles GET /api/coins/search?q=
// @Summary Search coins
// @Tags coins
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} models.CoinSearchResult
// @Router /coins/search [get]
func (h *CoinHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.quotes.SearchCoins(r.Context(), r.URL.Query().Get("q")))
}

// HandleLookup handles GET /api/coins/lookup?symbol=
// @Summary Find coin by symbol
// @Tags coins
// @Produce json
// @Param symbol query string true "Ticker symbol"
// @Success 200 {object} models.Coin
// @Failure 404 {string} string "No coin with that symbol"
// @Failure 502 {string} string "Quote source unavailable"
// @Router /coins/lookup [get]
func (h *CoinHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	coin, err := h.quotes.FindBySymbol(r.Context(), symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	if coin == nil {
		http.Error(w, "coin not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, coin)
}

// HandleDetails handles GET /api/coins/{id}
// @Summary Coin details
// @Tags coins
// @Produce json
// @Param id path string true "Coin ID"
// @Success 200 {object} models.CoinDetails
// @Failure 502 {string} string "Quote source unavailable"
// @Router /coins/{id} [get]
func (h *CoinHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.quotes.FetchCoinDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// HandleChart handles GET /api/coins/{id}/chart?days=30&currency=usd
// @Summary Historical price chart
// @Tags coins
// @Produce json
// @Param id path string true "Coin ID"
// @Param days query int false "Days of history (default 30)"
// @Param currency query string false "Quote currency (default usd)"
// @Success 200 {array} models.ChartPoint
// @Failure 502 {string} string "Quote source unavailable"
// @Router /coins/{id}/chart [get]
func (h *CoinHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := 0
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}
	points, err := h.quotes.FetchHistoricalChart(r.Context(), mux.Vars(r)["id"], days, q.Get("currency"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
