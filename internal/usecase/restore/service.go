// Package restore rebuilds a live, searchable index from an archive.
package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/db/memory"
	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
)

// Codec decompresses archives.
type Codec interface {
	Name() string
	Decompress(ctx context.Context, data []byte) ([]byte, error)
}

// Service restores indexes. Restored indexes keep stored vectors and embed
// queries with the configured embedder.
type Service struct {
	codec  Codec
	embed  domain.Embedder
	schema schema.Schema
	logger *zap.Logger
}

// New creates a restore service expecting the given schema.
func New(codec Codec, embed domain.Embedder, expected schema.Schema, logger *zap.Logger) *Service {
	return &Service{codec: codec, embed: embed, schema: expected, logger: logger}
}

// Restore decompresses and decodes an archive. Corrupt input fails with
// domain.ErrArchiveFormat, a different field set with domain.ErrSchemaMismatch.
func (s *Service) Restore(ctx context.Context, data []byte) (*memory.Index, error) {
	start := time.Now()
	idx, err := s.restore(ctx, data)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RestoreDuration.WithLabelValues(s.codec.Name(), status).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Restore failed", zap.String("codec", s.codec.Name()), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Index restored",
		zap.Int("documents", idx.Len()),
		zap.String("codec", s.codec.Name()),
		zap.Duration("duration", time.Since(start)),
	)
	return idx, nil
}

func (s *Service) restore(ctx context.Context, data []byte) (*memory.Index, error) {
	payload, err := s.codec.Decompress(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	idx, err := memory.Decode(payload, hook.ForRestore(), s.embed)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if !idx.Schema().Equal(s.schema) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSchemaMismatch, s.schema.Diff(idx.Schema()))
	}
	metrics.ArchiveBytes.WithLabelValues("payload").Set(float64(len(payload)))
	metrics.ArchiveBytes.WithLabelValues("compressed").Set(float64(len(data)))
	return idx, nil
}

// RestoreFile reads an archive from disk and restores it.
func (s *Service) RestoreFile(ctx context.Context, path string) (*memory.Index, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read archive: %w", domain.ErrConfiguration, err)
	}
	return s.Restore(ctx, data)
}
