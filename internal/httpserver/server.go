package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tagpilot/attribution-insights/internal/admin"
	"github.com/tagpilot/attribution-insights/internal/auth"
	"github.com/tagpilot/attribution-insights/internal/config"
	"github.com/tagpilot/attribution-insights/internal/database"
	"github.com/tagpilot/attribution-insights/internal/metrics"
	"github.com/tagpilot/attribution-insights/internal/middleware"
	"github.com/tagpilot/attribution-insights/internal/report"
	"github.com/tagpilot/attribution-insights/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Reader and Nonces override the storage-derived defaults; tests and
	// database-less development runs inject in-memory implementations.
	Reader storage.OrderReader
	Nonces auth.NonceStore
}

// Server wraps HTTP handlers around the report service.
type Server struct {
	reports  *report.Service
	verifier *auth.Verifier
	nonces   auth.NonceStore
	registry *admin.Registry
	logger   *zap.Logger
	config   *config.Config
	metrics  *metrics.Metrics
}

// NewServer resolves the order storage layout once and constructs an
// http.Handler with all routes registered.
func NewServer(ctx context.Context, deps *Dependencies) (http.Handler, error) {
	reader := deps.Reader
	if reader == nil {
		if deps.DB != nil {
			schema := storage.Schema(deps.Config.Report.Schema)
			if deps.Config.Report.Schema == "auto" {
				detected, err := storage.DetectSchema(ctx, deps.DB.Pool)
				if err != nil {
					return nil, err
				}
				schema = detected
			}
			deps.Logger.Info("order storage layout resolved", zap.String("schema", string(schema)))
			r, err := storage.NewOrderReader(deps.DB.Pool, schema)
			if err != nil {
				return nil, err
			}
			reader = r
		} else {
			deps.Logger.Warn("PostgreSQL not available, using in-memory order reader")
			reader = storage.NewMemoryOrderReader()
		}
	}

	nonces := deps.Nonces
	if nonces == nil {
		if deps.Redis != nil {
			nonces = auth.NewRedisNonceStore(deps.Redis.Client)
		} else {
			deps.Logger.Warn("Redis not available, using in-memory nonce store")
			nonces = auth.NewMemoryNonceStore()
		}
	}

	s := &Server{
		reports:  report.NewService(reader, deps.Config.Report, deps.Logger, deps.Metrics),
		verifier: auth.NewVerifier(deps.Config.Auth),
		nonces:   nonces,
		registry: admin.NewRegistry(),
		logger:   deps.Logger,
		config:   deps.Config,
		metrics:  deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// REST API (token-authenticated)
	mux.HandleFunc("/api/v1/analytics", s.handleAnalytics)
	mux.HandleFunc("/api/v1/analytics/summary", s.handleAnalyticsSummary)
	mux.HandleFunc("/api/v1/analytics/schema", s.handleAnalyticsSchema)

	// Admin dashboard (nonce-authenticated form posts)
	mux.HandleFunc("/admin/ajax", s.handleAjax)
	mux.HandleFunc("/admin/bootstrap", s.handleBootstrap)
	mux.HandleFunc("/admin/pages", s.handlePages)

	var handler http.Handler = mux
	handler = middleware.NewRateLimitMiddleware(deps.Config.RateLimit, deps.Logger, deps.Metrics).Handler(handler)
	handler = middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(deps.Logger).Handler(handler)

	return handler, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Helper Methods ----

func (s *Server) bootstrapPayload() admin.Bootstrap {
	return admin.NewBootstrap(s.config.Report)
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// apiToken extracts the caller's API token from header or query string.
func apiToken(r *http.Request) string {
	if t := r.Header.Get("X-API-Key"); t != "" {
		return t
	}
	return r.URL.Query().Get("api_key")
}

// requireCapability enforces the analytics capability before any storage
// access. Returns false after writing the 403 response.
func (s *Server) requireCapability(w http.ResponseWriter, r *http.Request) bool {
	if s.verifier.HasCapability(apiToken(r), auth.CapManageAnalytics) {
		return true
	}
	s.metrics.RecordAuthRejection("capability")
	s.restError(w, http.StatusForbidden, "rest_forbidden", "Sorry, you cannot view analytics data.")
	return false
}
