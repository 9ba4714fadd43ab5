package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/budget"
	"github.com/seekerlabs/seeker/internal/config"
	"github.com/seekerlabs/seeker/internal/llm"
	"github.com/seekerlabs/seeker/internal/research"
	"github.com/seekerlabs/seeker/internal/safety"
	"github.com/seekerlabs/seeker/internal/search"
	"github.com/seekerlabs/seeker/internal/server"
	"github.com/seekerlabs/seeker/internal/tracing"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.LLM.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY must be set")
	}

	shutdownTracing, err := tracing.Initialize(logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Safety filter: taxonomy file if present, built-in rules otherwise.
	moderation := llm.NewModerationClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout, logger)
	taxonomy := safety.DefaultTaxonomy()
	if t, err := safety.LoadTaxonomy(cfg.Safety.TaxonomyPath); err != nil {
		logger.Warn("using built-in safety taxonomy", zap.Error(err))
	} else {
		taxonomy = t
	}
	filter, err := safety.NewFilter(taxonomy, moderation, logger)
	if err != nil {
		logger.Fatal("Failed to build safety filter", zap.Error(err))
	}
	if _, err := os.Stat(cfg.Safety.TaxonomyPath); err == nil {
		go func() {
			if err := filter.WatchTaxonomy(ctx, cfg.Safety.TaxonomyPath); err != nil && ctx.Err() == nil {
				logger.Error("taxonomy watcher stopped", zap.Error(err))
			}
		}()
	}

	generator := llm.NewClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: cfg.LLM.RetryDelay,
	}, logger)

	searcher, err := search.NewSearcher(ctx, cfg.Search.APIKey, cfg.Search.EngineID, logger)
	if err != nil {
		logger.Fatal("Failed to initialize search", zap.Error(err))
	}
	extractor := search.NewExtractor(cfg.Search.FetchTimeout, logger)

	tokenizer := budget.NewTokenizer(cfg.LLM.Model, logger)
	planner := budget.NewPlanner(tokenizer, cfg.Budget.MaxTokens, cfg.Budget.MinTailTokens)

	orchestrator := research.NewOrchestrator(generator, filter, searcher, extractor, planner, research.Config{
		MaxSubQuestions:       cfg.Research.MaxSubQuestions,
		SearchResultsPerQuery: cfg.Research.PerQueryResults,
		MaxTotalSources:       cfg.Budget.MaxTotalSources,
		MaxFindingChars:       cfg.Research.FindingMaxChars,
		MaxAnalysisChars:      cfg.Research.AnalysisContentChars,
	}, logger)

	srv := server.New(server.Options{
		Addr:      cfg.Server.Addr,
		RateLimit: cfg.Server.RateLimitPerSec,
		RateBurst: cfg.Server.RateLimitBurst,
	}, orchestrator, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutMs)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown incomplete", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown incomplete", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
