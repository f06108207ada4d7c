package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/port"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/service"
	"github.com/boddenberg/product-advisor-bfa-go/internal/domain"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

const healthCheckTimeout = 2 * time.Second

// Options configures NewRouter.
type Options struct {
	// JWTSecret enables Bearer authentication on /v1 when set.
	JWTSecret string
}

// NewRouter creates the HTTP router with all routes and middleware. A nil
// manager or store leaves the matching route group unmounted.
func NewRouter(mgr *service.Manager, store port.UserDataStore, metrics *observability.Metrics, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/advisor", advisorMetricsHandler(metrics))

		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(opts.JWTSecret, logger))

			// =============================================
			// Advisor conversations
			// =============================================
			if mgr != nil {
				r.Route("/advisor/sessions", func(r chi.Router) {
					r.Post("/", createSessionHandler(mgr, logger))
					r.Delete("/{sessionId}", deleteSessionHandler(mgr, logger))
					r.Post("/{sessionId}/messages", sendMessageHandler(mgr, metrics, logger))
					r.Get("/{sessionId}/history", historyHandler(mgr, logger))
					r.Delete("/{sessionId}/history", clearHistoryHandler(mgr, logger))
					r.Get("/{sessionId}/context", sessionContextHandler(mgr, logger))
					r.Patch("/{sessionId}/context", updateSessionContextHandler(mgr, logger))
				})
			}

			// =============================================
			// Saved user data
			// =============================================
			if store != nil {
				r.Route("/users/me", func(r chi.Router) {
					r.Delete("/", clearUserDataHandler(store, logger))

					r.Get("/preferences", getPreferencesHandler(store, logger))
					r.Put("/preferences", updatePreferencesHandler(store, logger))

					r.Get("/favorites", listFavoritesHandler(store, logger))
					r.Post("/favorites", addFavoriteHandler(store, logger))
					r.Get("/favorites/{productId}", getFavoriteHandler(store, logger))
					r.Delete("/favorites/{productId}", removeFavoriteHandler(store, logger))
					r.Post("/favorites/{productId}/toggle", toggleFavoriteHandler(store, logger))

					r.Get("/recent-searches", listRecentSearchesHandler(store, logger))
					r.Post("/recent-searches", addRecentSearchHandler(store, logger))
					r.Delete("/recent-searches", clearRecentSearchesHandler(store, logger))

					r.Get("/comparisons", listComparisonsHandler(store, logger))
					r.Post("/comparisons", addComparisonHandler(store, logger))
					r.Delete("/comparisons", clearComparisonsHandler(store, logger))

					r.Get("/interactions", listInteractionsHandler(store, logger))
				})
			}
		})
	})

	return r
}

// ============================================================
// Probes & metrics
// ============================================================

func healthzHandler(store port.UserDataStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "advisor-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			start := time.Now()
			err := store.Ping(ctx)
			sh := domain.ServiceHealth{
				Name:        "user-data-store",
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("health check: store unavailable", zap.Error(err))
				sh.Status = "degraded"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func advisorMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAdvisorSnapshot())
	}
}
