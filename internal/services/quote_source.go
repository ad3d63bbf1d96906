package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
)

const (
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	DefaultQuoteTimeout     = 10 * time.Second
	DefaultQuoteCurrency    = "usd"
	defaultChartDays        = 30
)

// CoinGecko-based implementation. An API key is optional; without it the public
// tier is used and requests should be rate limited.
type CoinGeckoQuoteSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	catalog    CatalogCache
	log        *zap.Logger
}

type CoinGeckoOption func(*CoinGeckoQuoteSource)

// WithAPIKey sends key as the demo API key header.
func WithAPIKey(key string) CoinGeckoOption {
	return func(s *CoinGeckoQuoteSource) { s.apiKey = key }
}

// WithRateLimit allows perSec requests per second with the given burst.
func WithRateLimit(perSec float64, burst int) CoinGeckoOption {
	return func(s *CoinGeckoQuoteSource) {
		if perSec > 0 {
			if burst < 1 {
				burst = 1
			}
			s.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// WithCatalogCache serves ListCoins from cache when possible.
func WithCatalogCache(cache CatalogCache) CoinGeckoOption {
	return func(s *CoinGeckoQuoteSource) { s.catalog = cache }
}

func WithHTTPClient(c *http.Client) CoinGeckoOption {
	return func(s *CoinGeckoQuoteSource) { s.httpClient = c }
}

func NewCoinGeckoQuoteSource(baseURL string, timeout time.Duration, log *zap.Logger, opts ...CoinGeckoOption) *CoinGeckoQuoteSource {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}
	s := &CoinGeckoQuoteSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		log:        logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CoinGeckoQuoteSource) ListCoins(ctx context.Context) ([]models.Coin, error) {
	if s.catalog != nil {
		if coins, ok := s.catalog.GetCatalog(ctx); ok {
			return coins, nil
		}
	}

	var coins []models.Coin
	if err := s.getJSON(ctx, "/coins/list", nil, &coins); err != nil {
		return nil, err
	}
	if s.catalog != nil {
		s.catalog.SetCatalog(ctx, coins)
	}
	return coins, nil
}

// FindBySymbol prefers the relevance-ranked search endpoint and falls back to a
// scan of the full catalog for an exact, case-insensitive symbol match. A symbol
// that matches nothing yields nil without error.
func (s *CoinGeckoQuoteSource) FindBySymbol(ctx context.Context, symbol string) (*models.Coin, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, nil
	}

	results, err := s.search(ctx, symbol)
	if err != nil {
		s.log.Warn("coin search failed, falling back to catalog",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	} else if len(results) > 0 {
		top := results[0]
		return &models.Coin{ID: top.ID, Symbol: top.Symbol, Name: top.Name}, nil
	}

	coins, err := s.ListCoins(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range coins {
		if strings.EqualFold(c.Symbol, symbol) {
			coin := c
			return &coin, nil
		}
	}
	return nil, nil
}

// FetchSpotPrices fetches every id in one request. Ids missing from the response
// are missing from the result.
func (s *CoinGeckoQuoteSource) FetchSpotPrices(ctx context.Context, ids []string, currency string) (map[string]models.Quote, error) {
	quotes := make(map[string]models.Quote)
	if len(ids) == 0 {
		return quotes, nil
	}
	currency = normalizeCurrency(currency)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", currency)
	q.Set("include_24hr_change", "true")

	var payload map[string]map[string]decimal.NullDecimal
	if err := s.getJSON(ctx, "/simple/price", q, &payload); err != nil {
		return nil, err
	}
	for id, fields := range payload {
		quotes[id] = models.Quote{
			CoinID:    id,
			Currency:  currency,
			Price:     fields[currency],
			Change24h: fields[currency+"_24h_change"],
		}
	}
	return quotes, nil
}

func (s *CoinGeckoQuoteSource) FetchHistoricalChart(ctx context.Context, id string, days int, currency string) ([]models.ChartPoint, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &apperrors.ErrValidation{Field: "id", Message: "is required"}
	}
	if days <= 0 {
		days = defaultChartDays
	}

	q := url.Values{}
	q.Set("vs_currency", normalizeCurrency(currency))
	q.Set("days", strconv.Itoa(days))

	var payload struct {
		Prices [][]decimal.Decimal `json:"prices"`
	}
	if err := s.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", q, &payload); err != nil {
		return nil, err
	}

	points := make([]models.ChartPoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		if len(p) < 2 {
			continue
		}
		points = append(points, models.ChartPoint{
			Timestamp: time.UnixMilli(p[0].IntPart()).UTC(),
			Price:     p[1],
		})
	}
	return points, nil
}

func (s *CoinGeckoQuoteSource) FetchCoinDetails(ctx context.Context, id string) (*models.CoinDetails, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &apperrors.ErrValidation{Field: "id", Message: "is required"}
	}

	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")

	var payload struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
		Image  struct {
			Thumb string `json:"thumb"`
			Small string `json:"small"`
			Large string `json:"large"`
		} `json:"image"`
		MarketData struct {
			CurrentPrice map[string]decimal.Decimal `json:"current_price"`
		} `json:"market_data"`
	}
	if err := s.getJSON(ctx, "/coins/"+url.PathEscape(id), q, &payload); err != nil {
		return nil, err
	}

	image := payload.Image.Large
	if image == "" {
		image = payload.Image.Small
	}
	if image == "" {
		image = payload.Image.Thumb
	}
	return &models.CoinDetails{
		ID:           payload.ID,
		Symbol:       payload.Symbol,
		Name:         payload.Name,
		Image:        image,
		CurrentPrice: payload.MarketData.CurrentPrice,
	}, nil
}

// SearchCoins never fails; any error yields an empty result.
func (s *CoinGeckoQuoteSource) SearchCoins(ctx context.Context, query string) []models.CoinSearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.CoinSearchResult{}
	}
	results, err := s.search(ctx, query)
	if err != nil {
		s.log.Warn("coin search failed", zap.String("query", query), zap.Error(err))
		return []models.CoinSearchResult{}
	}
	return results
}

func (s *CoinGeckoQuoteSource) search(ctx context.Context, query string) ([]models.CoinSearchResult, error) {
	q := url.Values{}
	q.Set("q", query)

	var payload struct {
		Coins []models.CoinSearchResult `json:"coins"`
	}
	if err := s.getJSON(ctx, "/search", q, &payload); err != nil {
		return nil, err
	}
	if payload.Coins == nil {
		return []models.CoinSearchResult{}, nil
	}
	return payload.Coins, nil
}

func (s *CoinGeckoQuoteSource) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &apperrors.NetworkError{Endpoint: path, Err: err}
	}

	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apperrors.NetworkError{Endpoint: path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.NetworkError{Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultQuoteCurrency
	}
	return currency
}
