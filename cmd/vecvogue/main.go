package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/config"
	"github.com/kailas-cloud/vecvogue/internal/db"
	"github.com/kailas-cloud/vecvogue/internal/db/flat"
	dbRedis "github.com/kailas-cloud/vecvogue/internal/db/redis"
	"github.com/kailas-cloud/vecvogue/internal/domain"
	logpkg "github.com/kailas-cloud/vecvogue/internal/logger"
	"github.com/kailas-cloud/vecvogue/internal/metrics"
	"github.com/kailas-cloud/vecvogue/internal/repository/catalog"
	"github.com/kailas-cloud/vecvogue/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/vecvogue/internal/transport/chi"
	"github.com/kailas-cloud/vecvogue/internal/transport/clip"
	"github.com/kailas-cloud/vecvogue/internal/transport/crossencoder"
	openaiEmb "github.com/kailas-cloud/vecvogue/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecvogue/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecvogue/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/vecvogue/internal/usecase/recommend"
	rerankuc "github.com/kailas-cloud/vecvogue/internal/usecase/rerank"
	retrievaluc "github.com/kailas-cloud/vecvogue/internal/usecase/retrieval"
	"github.com/kailas-cloud/vecvogue/internal/version"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "api")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecvogue API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Catalog.IndexPath),
		zap.String("meta_path", cfg.Catalog.MetaPath),
	)

	// The catalog must load before serving; a missing or mismatched pair is fatal.
	repo, err := catalog.Load(cfg.Catalog.IndexPath, cfg.Catalog.MetaPath,
		flat.WithParallelThreshold(cfg.Retrieval.ParallelThreshold),
	)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactMissing) {
			logger.Fatal("Catalog artifacts not found, run vecvogue-index build first", zap.Error(err))
		}
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.Int("items", repo.Len()),
		zap.Int("dim", repo.Dim()),
		zap.String("build_id", repo.BuildID().String()),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.CatalogItems.Set(float64(repo.Len()))

	// Optional shared cache tier
	ctx := context.Background()
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Cache.Addrs,
			Password:  cfg.Cache.Password,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer s.Close()
		if err := s.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		store = s
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	queryEmbedder, err := buildQueryEmbedder(base, cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to build embedder", zap.Error(err))
	}

	retrievalOpts := []retrievaluc.Option{
		retrievaluc.WithOverfetchFactor(cfg.Retrieval.OverfetchFactor),
	}
	if cfg.Embedding.ImageURL != "" {
		retrievalOpts = append(retrievalOpts, retrievaluc.WithImageEmbedder(clip.NewEmbedder(
			cfg.Embedding.ImageURL,
			cfg.Embedding.ImageModel,
			time.Duration(cfg.Embedding.TimeoutSec)*time.Second,
			logger,
		)))
		logger.Info("Image queries enabled", zap.String("url", cfg.Embedding.ImageURL))
	}
	retrievalSvc := retrievaluc.New(repo, queryEmbedder, retrievalOpts...)

	// Pass a nil interface, not a typed nil pointer, when reranking is off.
	rerankTimeout := time.Duration(cfg.Rerank.TimeoutSec) * time.Second
	var reranker recommenduc.Reranker
	if cfg.Rerank.BaseURL != "" {
		scorer := crossencoder.NewClient(cfg.Rerank.BaseURL, cfg.Rerank.Model, rerankTimeout, logger, nil)
		reranker = rerankuc.New(scorer)
		logger.Info("Reranking enabled", zap.String("model", cfg.Rerank.Model))
	}

	recommendSvc := recommenduc.New(retrievalSvc, reranker, recommenduc.Config{
		DefaultTopK:   cfg.Retrieval.DefaultTopK,
		MaxTopK:       cfg.Retrieval.MaxTopK,
		RerankTimeout: rerankTimeout,
	}, logger)

	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(repo, base, cachePinger)

	server := chiTransport.NewServer(recommendSvc, healthSvc, logger, int64(cfg.HTTP.MaxBodyMB)<<20)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.Handle("/metrics", promhttp.Handler())

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

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Cached -> Instruction.
// The instruction is outermost so cache keys include it.
func buildQueryEmbedder(
	base *openaiEmb.Embedder,
	cfg config.Config,
	store db.Store,
	logger *zap.Logger,
) (domain.Embedder, error) {
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)

	cacheOpts := []embcache.Option{embcache.WithMetrics(metrics.EmbeddingCacheTotal)}
	if store != nil {
		cacheOpts = append(cacheOpts, embcache.WithStore(store, time.Duration(cfg.Cache.TTLHours)*time.Hour))
	}
	cached, err := embcache.New(embedder, cfg.Embedding.Model, cfg.Cache.LRUSize, logger, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	embedder = cached

	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction), nil
	}
	return embedder, nil
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
