package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/composer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/interactionlog"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/service"
	"github.com/boddenberg/product-advisor-bfa-go/internal/handler"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/storage"
)

// TestIntegration_RedisFullFlow runs the production wiring (Redis store,
// async interaction log) against an in-process Redis.
func TestIntegration_RedisFullFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	store := storage.NewRedis(rdb, resilience.NewCircuitBreaker("redis-it", logger), cfg, storage.Options{}, logger)
	interactions := interactionlog.New(store, interactionlog.Options{QueueSize: 8}, metrics, logger)

	advisor := service.NewAdvisor(
		service.Config{},
		analyzer.New(nil),
		composer.New(nil, composer.Options{Pick: func(int) int { return 0 }}),
		store,
		interactions,
		metrics,
		logger,
	)
	mgr := service.NewManager(advisor, time.Minute, resilience.NewBulkhead(1), metrics, logger)
	t.Cleanup(mgr.Close)
	ts := &testServer{
		router:  handler.NewRouter(mgr, store, metrics, handler.Options{}, logger),
		store:   store,
		metrics: metrics,
	}

	// Saved data is picked up by new sessions.
	rec := ts.do(t, http.MethodPost, "/v1/users/me/favorites", "u1", `{"productId":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	s := createSession(t, ts, "u1", `{"name":"Ana"}`)
	assert.Equal(t, []int{2}, s.UserContext.Favorites)

	// A recommendation mentions the favorites.
	rec = ts.do(t, http.MethodPost, "/v1/advisor/sessions/"+s.SessionID+"/messages", "u1",
		`{"message":"recommend a coding assistant"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[messageBody](t, rec)
	assert.True(t, msg.Success)
	assert.True(t, strings.HasSuffix(msg.Response, "similar tools.*"), msg.Response)

	// Drain the async log, then the interaction is readable over HTTP.
	require.NoError(t, interactions.Close(context.Background()))
	list := decode[listBody[map[string]any]](t, ts.do(t, http.MethodGet, "/v1/users/me/interactions", "u1", ""))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, s.SessionID, list.Data[0]["sessionId"])
	assert.Equal(t, "recommendation", list.Data[0]["intent"])

	assert.True(t, mr.Exists("@AIProductAdvisor:u1:favorites"))
	assert.True(t, mr.Exists("@AIProductAdvisor:u1:aiInteractions"))

	health := decode[map[string]any](t, ts.do(t, http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, "healthy", health["status"])

	// Erasure removes every key of the user.
	rec = ts.do(t, http.MethodDelete, "/v1/users/me", "u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, mr.Exists("@AIProductAdvisor:u1:favorites"))
	assert.False(t, mr.Exists("@AIProductAdvisor:u1:aiInteractions"))
}

func TestIntegration_RedisDownDegradesGracefully(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := storage.NewRedis(rdb, resilience.NewCircuitBreaker("redis-down", nil),
		resilience.Config{InitialBackoff: time.Millisecond}, storage.Options{}, logger)
	advisor := service.NewAdvisor(service.Config{}, analyzer.New(nil), composer.New(nil, composer.Options{}),
		store, store, metrics, logger)
	mgr := service.NewManager(advisor, time.Minute, resilience.NewBulkhead(1), metrics, logger)
	t.Cleanup(mgr.Close)
	ts := &testServer{
		router:  handler.NewRouter(mgr, store, metrics, handler.Options{}, logger),
		store:   store,
		metrics: metrics,
	}
	mr.Close()

	// Sessions still open with a default context and still answer.
	s := createSession(t, ts, "u1", "")
	assert.Empty(t, s.UserContext.Favorites)
	rec := ts.do(t, http.MethodPost, "/v1/advisor/sessions/"+s.SessionID+"/messages", "u1", `{"message":"what is claude"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[messageBody](t, rec).Success)

	// Direct data access reports the outage.
	rec = ts.do(t, http.MethodGet, "/v1/users/me/favorites", "u1", "")
	assert.Contains(t, []int{http.StatusBadGateway, http.StatusServiceUnavailable}, rec.Code)

	health := decode[map[string]any](t, ts.do(t, http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, "degraded", health["status"])
}
