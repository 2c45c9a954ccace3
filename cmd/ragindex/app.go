package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/archive"
	"github.com/totto/penpot-wizard-sub002/internal/config"
	"github.com/totto/penpot-wizard-sub002/internal/db"
	"github.com/totto/penpot-wizard-sub002/internal/db/memory"
	dbValkey "github.com/totto/penpot-wizard-sub002/internal/db/valkey"
	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/embedding/hashing"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
	"github.com/totto/penpot-wizard-sub002/internal/repository/embcache"
	openaiEmb "github.com/totto/penpot-wizard-sub002/internal/transport/openai"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/build"
	embeddinguc "github.com/totto/penpot-wizard-sub002/internal/usecase/embedding"
	healthuc "github.com/totto/penpot-wizard-sub002/internal/usecase/health"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/restore"
	searchuc "github.com/totto/penpot-wizard-sub002/internal/usecase/search"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/validation"
)

// app is the composition root shared by all commands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer

	cache    db.Store
	codec    archive.Codec
	docEmbed domain.Embedder
	qryEmbed domain.Embedder
	schema   schema.Schema
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIndexMetrics()

	codec, err := archive.New(archive.Kind(cfg.Archive.Codec), cfg.Archive.ChunkSize)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
		codec:  codec,
		schema: schema.Default(cfg.Embedding.Dimensions),
	}

	if cfg.Cache.Enabled {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embedding cache: %w", domain.ErrConfiguration, err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("embedding cache not ready: %w", err)
		}
		logger.Debug("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		a.cache = store
	}

	a.docEmbed = a.buildEmbedder(cfg.Embedding.DocumentInstruction)
	a.qryEmbed = a.buildEmbedder(cfg.Embedding.QueryInstruction)
	logger.Debug("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("codec", codec.Name()),
	)
	return a, nil
}

// Close releases the cache connection.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction
func (a *app) buildEmbedder(instruction string) domain.Embedder {
	ec := a.cfg.Embedding

	var embedder domain.Embedder
	model := ec.Model
	switch ec.Provider {
	case config.ProviderHashing:
		embedder = hashing.NewEmbedder(ec.Dimensions)
		model = hashing.Provider
	default:
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     a.logger,
		})
	}

	if a.cache != nil {
		embedder = embcache.New(embedder, a.cache, embcache.Config{
			KeyPrefix:  a.cfg.Cache.KeyPrefix,
			Model:      model,
			Dimensions: ec.Dimensions,
			TTL:        time.Duration(a.cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, model, a.logger)

	// Instruction prefix (outermost, so cache keys include it)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func (a *app) builder() *build.Service {
	return build.New(a.docEmbed, a.codec, a.logger,
		build.WithSchema(a.schema),
		build.WithTextFields(a.cfg.Embedding.TextFields...),
		build.WithConcurrency(a.cfg.Embedding.Concurrency),
	)
}

func (a *app) restore(ctx context.Context, path string) (*memory.Index, error) {
	return restore.New(a.codec, a.qryEmbed, a.schema, a.logger).RestoreFile(ctx, path)
}

func (a *app) searcher() *searchuc.Service { return searchuc.New(a.logger) }

func (a *app) validator(opts ...validation.Option) *validation.Service {
	return validation.New(a.searcher(), a.logger, opts...)
}

func (a *app) health() *healthuc.Service {
	var cache healthuc.CachePinger
	if a.cache != nil {
		cache = a.cache
	}
	return healthuc.New(cache, embeddingHealthChecker{embedder: a.qryEmbed})
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
