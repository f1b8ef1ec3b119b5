package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/collect"
	"github.com/TobiSchelling/welfarelens/internal/database"
	"github.com/TobiSchelling/welfarelens/internal/generate"
	"github.com/TobiSchelling/welfarelens/internal/llm"
	"github.com/TobiSchelling/welfarelens/internal/pipeline"
	"github.com/TobiSchelling/welfarelens/internal/sources"
)

// app holds the long-lived components built once at start-up.
type app struct {
	db        *database.DB
	collector *collect.Collector
	pipeline  *pipeline.Pipeline
}

func openDB() (*database.DB, error) {
	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath(), logger)
}

// newApp opens the database and wires adapters, collector, LLM and
// workflows. Close releases the database.
func newApp(ctx context.Context) (*app, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}

	wb := cfg.Sources.WorldBank
	registry, err := sources.Build(ctx, db, logger,
		sources.WithBaseURL(wb.BaseURL),
		sources.WithTimeout(wb.Timeout),
		sources.WithRateLimit(wb.RateLimit),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("registering data sources: %w", err)
	}

	bulletins := make(map[sources.Kind]string)
	for _, b := range cfg.Sources.Bulletins {
		kind, ok := sources.ParseKind(b.Source)
		if !ok {
			logger.Warn("ignoring bulletin for unknown source", zap.String("source", b.Source))
			continue
		}
		bulletins[kind] = b.URL
	}
	collector := collect.NewCollector(registry, db, logger,
		collect.WithBulletins(collect.NewFeedReader(wb.Timeout), bulletins),
	)

	provider := llm.CreateProvider(ctx, cfg.LLM, logger)
	if provider == nil {
		logger.Warn("no LLM provider available; analyses will fail until one is configured")
	}
	analyzer := generate.NewLLMAnalyzer(provider, cfg.LLM.MaxTokens, logger)

	return &app{
		db:        db,
		collector: collector,
		pipeline:  pipeline.New(db, collector, analyzer, pipeline.LimitsFromConfig(cfg), logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
