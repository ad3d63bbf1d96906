package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/services"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store     StoreClient
	Portfolio services.PortfolioService
	Stats     services.ProjectStatsService
	Quotes    services.QuoteSource
	// Health reports row store reachability; nil means the store is disabled.
	Health func() error
	Log    *zap.Logger
}

// NewRouter registers every API route plus /health and the Swagger UI.
func NewRouter(d Deps) *mux.Router {
	log := logger.OrNop(d.Log)

	authHandler := NewAuthHandler(d.Store)
	portfolioHandler := NewPortfolioHandler(d.Portfolio, d.Store, d.Quotes, log)
	projectHandler := NewProjectHandler(d.Store, d.Stats, log)
	coinHandler := NewCoinHandler(d.Quotes)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))
	router.Use(recoveryMiddleware(log))
	router.Use(corsMiddleware)

	router.HandleFunc("/health", healthHandler(d.Health)).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := router.PathPrefix("/api").Subrouter()
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	api.HandleFunc("/auth/signin", authHandler.HandleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", authHandler.HandleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", authHandler.HandleSignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", authHandler.HandleSession).Methods(http.MethodGet)

	api.HandleFunc("/portfolio", portfolioHandler.HandlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/portfolio/refresh", portfolioHandler.HandleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/portfolio/items", portfolioHandler.HandleListItems).Methods(http.MethodGet)
	api.HandleFunc("/portfolio/items", portfolioHandler.HandleCreateItem).Methods(http.MethodPost)
	api.HandleFunc("/portfolio/items/{id}", portfolioHandler.HandleUpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/portfolio/items/{id}", portfolioHandler.HandleDeleteItem).Methods(http.MethodDelete)

	api.HandleFunc("/projects", projectHandler.HandleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/projects", projectHandler.HandleCreateProject).Methods(http.MethodPost)
	api.HandleFunc("/projects/stats", projectHandler.HandleStats).Methods(http.MethodGet)
	api.HandleFunc("/projects/events", projectHandler.HandleEvents).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", projectHandler.HandleUpdateProject).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}", projectHandler.HandleDeleteProject).Methods(http.MethodDelete)

	api.HandleFunc("/coins/search", coinHandler.HandleSearch).Methods(http.MethodGet)
	api.HandleFunc("/coins/lookup", coinHandler.HandleLookup).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}", coinHandler.HandleDetails).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/chart", coinHandler.HandleChart).Methods(http.MethodGet)

	return router
}

// healthHandler godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "healthy", "service": "folio", "store": "disabled"}
		status := http.StatusOK
		if check != nil {
			if err := check(); err != nil {
				body["status"] = "unhealthy"
				body["store"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				body["store"] = "ok"
			}
		}
		writeJSON(w, status, body)
	}
}

func loggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}

func recoveryMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic serving request", zap.String("path", r.URL.Path), zap.Any("panic", rec))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code and keeps streaming responses flushable.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
