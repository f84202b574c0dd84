// Command server starts the ATS matching HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/adapter/ai/gateway"
	"github.com/quyet5603/DATN-sub002/internal/adapter/ai/stub"
	"github.com/quyet5603/DATN-sub002/internal/adapter/cache"
	"github.com/quyet5603/DATN-sub002/internal/adapter/httpserver"
	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/adapter/queue/redpanda"
	"github.com/quyet5603/DATN-sub002/internal/adapter/repo/postgres"
	"github.com/quyet5603/DATN-sub002/internal/adapter/storage"
	"github.com/quyet5603/DATN-sub002/internal/adapter/textextractor/resumeparser"
	"github.com/quyet5603/DATN-sub002/internal/app"
	"github.com/quyet5603/DATN-sub002/internal/config"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	candidateRepo := postgres.NewCandidateRepo(pool)
	cvRepo := postgres.NewCVRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	applicationRepo := postgres.NewApplicationRepo(pool)

	files, err := storage.NewLocalFS(cfg.UploadDir)
	if err != nil {
		slog.Error("upload dir init failed", slog.Any("error", err))
		os.Exit(1)
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	// Optional Redis front for the match cache.
	var rdb *redis.Client
	var front usecase.CacheFront
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		front = cache.NewMatchCache(rdb, cfg.MatchCacheTTL)
		slog.Info("match cache front enabled", slog.String("addr", cfg.RedisAddr))
	}

	var completion domain.CompletionClient
	if cfg.LLMAPIKey == "" && cfg.IsDev() {
		slog.Warn("no LLM API key; using the deterministic stub client")
		completion = stub.New()
	} else {
		completion = gateway.New(cfg)
	}

	analyzer := resumeparser.New(cfg.ResumeParserURL)
	prompts := ai.NewPromptBuilder(ai.DefaultMatchSchema(), cfg.LLMModel,
		cfg.PromptCVTokenBudget, cfg.PromptJobDescMaxChars)
	resolver := usecase.NewResolver(candidateRepo, cvRepo, files, analyzer)
	matchSvc := usecase.NewMatchService(resolver, prompts, completion, applicationRepo,
		front, cfg.MatchEvalLimit, cfg.MatchTopK)
	cvSvc := usecase.NewCVService(cvRepo, files, producer, cfg.MaxUploadMB<<20)

	checks := map[string]app.ReadyCheck{
		"db": pool.Ping,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	srv := httpserver.NewServer(cfg, matchSvc, cvSvc, jobRepo)
	handler := app.BuildRouter(cfg, srv, checks)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
