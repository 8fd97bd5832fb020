package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cliniview/triage/internal/config"
	"github.com/cliniview/triage/internal/db"
	dbRedis "github.com/cliniview/triage/internal/db/redis"
	"github.com/cliniview/triage/internal/domain"
	logpkg "github.com/cliniview/triage/internal/logger"
	"github.com/cliniview/triage/internal/metrics"
	"github.com/cliniview/triage/internal/repository/resultcache"
	"github.com/cliniview/triage/internal/tier"
	chiTransport "github.com/cliniview/triage/internal/transport/chi"
	assessuc "github.com/cliniview/triage/internal/usecase/assess"
	healthuc "github.com/cliniview/triage/internal/usecase/health"
	"github.com/cliniview/triage/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func serve() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting triage API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("tiers_configured", len(cfg.Tiers)),
	)

	// Register inference metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()

	// Load inference tiers in priority order; a failing tier is recorded
	// as unavailable rather than aborting startup.
	selector, err := tier.NewSelector(tier.LoadSlots(tierSpecs(cfg.Tiers), logger))
	if err != nil {
		logger.Fatal("No inference tier available", zap.Error(err))
	}

	assessSvc, store := buildAssessService(cfg, selector, logger)
	if store != nil {
		defer store.Close()
	}

	// Health service. Pass nil interface (not typed nil pointer!) when the
	// cache is not configured.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(selector, cachePinger)

	server := chiTransport.NewServer(assessSvc, healthSvc, selector, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildAssessService assembles the assessment pipeline — composition root.
// The returned store is non-nil only when the result cache is configured.
func buildAssessService(
	cfg config.Config, selector *tier.Selector, logger *zap.Logger,
) (*assessuc.Service, db.Store) {
	table := domain.DefaultCategoryTable()
	if len(cfg.Safety.CriticalKeywords) > 0 {
		table = table.WithCritical(cfg.Safety.CriticalKeywords)
	}

	safety := assessuc.NewSafetyEngine(assessuc.SafetyConfig{
		Ceiling:                 cfg.Safety.Ceiling,
		Floor:                   cfg.Safety.Floor,
		LowConfidenceTop:        cfg.Safety.LowConfidenceTop,
		SingleSymptomMultiplier: cfg.Safety.SingleSymptomMultiplier,
	}, table)

	svc := assessuc.New(selector, safety, assessuc.NewRecommender(table)).
		WithTimeout(time.Duration(cfg.Prediction.TimeoutSec) * time.Second).
		WithTopK(cfg.Prediction.TopK).
		WithFallback(cfg.Prediction.FallbackOnError)

	if len(cfg.Cache.Addrs) == 0 {
		return svc, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}

	readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(context.Background(), readiness); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to result cache", zap.Strings("addrs", cfg.Cache.Addrs))

	cache := resultcache.New(store, time.Duration(cfg.Cache.TTLSec)*time.Second, logger).
		WithKeyPrefix(cfg.Cache.KeyPrefix)
	return svc.WithCache(cache), store
}

func tierSpecs(tiers []config.TierConfig) []tier.Spec {
	specs := make([]tier.Spec, len(tiers))
	for i, t := range tiers {
		specs[i] = tier.Spec{
			ID:         t.ID,
			Scheme:     tier.Scheme(t.Scheme),
			BundlePath: t.Bundle,
			KBPath:     t.KB,
		}
	}
	return specs
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
