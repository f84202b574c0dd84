// Command worker consumes CV analysis tasks from the queue, runs the
// analysis pipeline and stores the results on the CV records.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quyet5603/DATN-sub002/internal/adapter/ai"
	"github.com/quyet5603/DATN-sub002/internal/adapter/ai/gateway"
	"github.com/quyet5603/DATN-sub002/internal/adapter/ai/stub"
	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/adapter/queue/redpanda"
	"github.com/quyet5603/DATN-sub002/internal/adapter/repo/postgres"
	"github.com/quyet5603/DATN-sub002/internal/adapter/storage"
	"github.com/quyet5603/DATN-sub002/internal/adapter/textextractor/resumeparser"
	"github.com/quyet5603/DATN-sub002/internal/config"
	"github.com/quyet5603/DATN-sub002/internal/domain"
	"github.com/quyet5603/DATN-sub002/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// Expose worker metrics on a dedicated port for scraping.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	cvRepo := postgres.NewCVRepo(pool)
	files, err := storage.NewLocalFS(cfg.UploadDir)
	if err != nil {
		slog.Error("upload dir init failed", slog.Any("error", err))
		os.Exit(1)
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
	analyzeSvc := usecase.NewAnalyzeService(cvRepo, files, analyzer, prompts, completion)

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup,
		cfg.ConsumerMaxConcurrency, analyzeSvc)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	slog.Info("worker started, consuming analysis tasks",
		slog.String("group", cfg.ConsumerGroup),
		slog.Int("max_concurrency", cfg.ConsumerMaxConcurrency))
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
