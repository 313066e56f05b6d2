package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sentinel/internal/classifier"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/config"
	"github.com/Veraticus/sentinel/internal/linksafety"
	"github.com/Veraticus/sentinel/internal/ocr"
	"github.com/Veraticus/sentinel/internal/pipeline"
	"github.com/Veraticus/sentinel/internal/storage"
	"github.com/spf13/viper"
)

func loadConfig() (*config.Config, error) {
	config.SetDefaults(viper.GetViper())
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Invalid configuration", err)
	}
	return cfg, nil
}

// openHistory opens and migrates the history database. It returns nil when
// history is disabled.
func openHistory(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	if !cfg.Database.HistoryEnabled {
		return nil, nil //nolint:nilnil // disabled history is not an error
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return store, nil
}

// buildExtractor wires Tesseract and, when configured, a lazily constructed
// Gemini engine. The returned Lazy is nil without a secondary engine.
func buildExtractor(cfg *config.Config) (*ocr.Extractor, *ocr.Lazy) {
	primary := ocr.NewTesseract(cfg.OCR.Language)

	secondary := cfg.OCR.Secondary
	if !secondary.Available() {
		if secondary.Enabled {
			slog.Warn("Secondary OCR enabled but no API key configured; using Tesseract only")
		}
		return ocr.NewExtractor(primary), nil
	}

	lazy := ocr.NewLazy("gemini", func(ctx context.Context) (ocr.Engine, error) {
		g, err := ocr.NewGemini(ctx, secondary.APIKey, secondary.Model,
			ocr.WithRequestsPerMinute(secondary.RequestsPerMinute))
		if err != nil {
			return nil, err
		}
		return g, nil
	})
	return ocr.NewExtractor(primary, ocr.WithSecondary(lazy)), lazy
}

// buildPipeline loads the classifier and assembles the pipeline. A classifier
// that cannot be loaded is fatal. The returned cleanup releases OCR engines.
func buildPipeline(cfg *config.Config, store *storage.SQLiteStorage) (*pipeline.Pipeline, func(), error) {
	clf, err := classifier.Load(cfg.Models.Dir)
	if err != nil {
		return nil, nil, common.NewUserError("Failed to load the classifier from "+cfg.Models.Dir, err)
	}
	common.LogDebug("Loaded classifier", common.Fields{"dir": cfg.Models.Dir, "labels": len(clf.Labels())})

	extractor, lazy := buildExtractor(cfg)

	var sink pipeline.Sink = pipeline.LogSink{}
	if store != nil {
		sink = pipeline.MultiSink{sink, store}
	}

	cleanup := func() {
		if lazy != nil {
			if err := lazy.Close(); err != nil {
				slog.Warn("Failed to close secondary OCR engine", "error", err)
			}
		}
	}
	return pipeline.New(extractor, clf, pipeline.WithSink(sink)), cleanup, nil
}

func buildLinkAnalyzer(cfg *config.Config, probe bool) *linksafety.Analyzer {
	if !probe || !cfg.Links.Probe {
		return linksafety.NewAnalyzer(nil, cfg.Links.Timeout)
	}
	return linksafety.NewAnalyzer(linksafety.NewHTTPProber(cfg.Links.Timeout), cfg.Links.Timeout)
}

func closeStore(store *storage.SQLiteStorage) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close history database", "error", err)
	}
}
