package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/analyzer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/composer"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/interactionlog"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/rules"
	"github.com/boddenberg/product-advisor-bfa-go/internal/advisor/service"
	"github.com/boddenberg/product-advisor-bfa-go/internal/config"
	"github.com/boddenberg/product-advisor-bfa-go/internal/handler"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/observability"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/product-advisor-bfa-go/internal/infra/storage"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_redis", cfg.RedisURL != ""),
		zap.String("rules_file", cfg.RulesFile),
		zap.Duration("conversation_timeout", cfg.ConversationTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_conversation_history", cfg.MaxConversationHistory),
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("jwt_enabled", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "product-advisor-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	if cfg.SessionTTL <= cfg.ConversationTimeout {
		logger.Warn("SESSION_TTL does not exceed CONVERSATION_TIMEOUT, expired conversations will be evicted before they can resume",
			zap.Duration("session_ttl", cfg.SessionTTL),
			zap.Duration("conversation_timeout", cfg.ConversationTimeout),
		)
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Rules ---
	ruleSet := rules.Default()
	if cfg.RulesFile != "" {
		ruleSet, err = rules.Load(cfg.RulesFile)
		if err != nil {
			logger.Fatal("failed to load advisor rules", zap.String("path", cfg.RulesFile), zap.Error(err))
		}
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Storage ---
	storeOpts := storage.Options{
		Prefix:           cfg.StoragePrefix,
		InteractionLimit: cfg.InteractionLimit,
	}
	var store *storage.Store
	if cfg.RedisURL != "" {
		rdb, err := storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		defer rdb.Close()

		cb := resilience.NewCircuitBreaker("redis", logger)
		store = storage.NewRedis(rdb, cb, resilienceCfg, storeOpts, logger)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis not reachable at startup, continuing degraded", zap.Error(err))
		}
		cancel()
		logger.Info("using Redis as user data store")
	} else {
		store = storage.NewMemory(storeOpts, logger)
		logger.Info("using in-memory user data store")
	}

	interactions := interactionlog.New(store, interactionlog.Options{
		QueueSize: cfg.InteractionQueueSize,
	}, metrics, logger)

	// --- Advisor ---
	advisor := service.NewAdvisor(
		service.Config{
			MaxConversationHistory: cfg.MaxConversationHistory,
			ConversationTimeout:    cfg.ConversationTimeout,
			ConfidenceThreshold:    cfg.ConfidenceThreshold,
		},
		analyzer.New(ruleSet),
		composer.New(ruleSet, composer.Options{MaxRecommendations: cfg.MaxRecommendations}),
		store,
		interactions,
		metrics,
		logger,
	)
	manager := service.NewManager(advisor, cfg.SessionTTL, resilience.NewBulkhead(cfg.MaxConcurrency), metrics, logger)

	// --- Router ---
	router := handler.NewRouter(manager, store, metrics, handler.Options{JWTSecret: cfg.JWTSecret}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}
	manager.Close()
	if err := interactions.Close(ctx); err != nil {
		logger.Warn("interaction log not fully drained", zap.Int("pending", interactions.Pending()), zap.Error(err))
	}

	logger.Info("server stopped")
}
