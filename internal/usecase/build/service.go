// Package build turns a corpus into a searchable index and its gzip archive.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/db/memory"
	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
)

// Service builds indexes. Documents are embedded on insert from the configured text fields.
type Service struct {
	embed       domain.Embedder
	codec       Codec
	schema      schema.Schema
	textFields  []string
	concurrency int
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTextFields sets the fields concatenated for document embeddings (default: text).
func WithTextFields(fields ...string) Option {
	return func(s *Service) { s.textFields = fields }
}

// WithConcurrency sets the number of concurrent embedding calls (default 1).
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSchema overrides the default 512-dimension schema.
func WithSchema(sc schema.Schema) Option {
	return func(s *Service) { s.schema = sc }
}

// New creates a build service.
func New(embed domain.Embedder, codec Codec, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		embed:       embed,
		codec:       codec,
		schema:      schema.Default(domain.DefaultVectorConfig().Dimensions),
		concurrency: 1,
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Build indexes docs in order, serializes the index and compresses it.
// An embedding failure aborts the build with an error naming the document.
func (s *Service) Build(ctx context.Context, docs []document.Document) ([]byte, *memory.Index, error) {
	start := time.Now()

	idx, err := memory.New(s.schema, hook.ForBuild(s.textFields...), s.embed)
	if err != nil {
		return nil, nil, fmt.Errorf("new index: %w", err)
	}

	if err := idx.InsertMultiple(ctx, docs, s.concurrency); err != nil {
		metrics.BuildDocumentsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Index build failed",
			zap.Int("documents", len(docs)),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("insert documents: %w", err)
	}
	metrics.BuildDocumentsTotal.WithLabelValues("ok").Add(float64(len(docs)))
	for _, d := range idx.Documents() {
		s.logger.Debug("Document indexed", zap.String("id", d.ID()))
	}

	payload, err := idx.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("serialize index: %w", err)
	}
	archive, err := s.codec.Compress(ctx, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("compress index: %w", err)
	}
	metrics.ArchiveBytes.WithLabelValues("payload").Set(float64(len(payload)))
	metrics.ArchiveBytes.WithLabelValues("compressed").Set(float64(len(archive)))

	s.logger.Info("Index built",
		zap.Int("documents", idx.Len()),
		zap.Int("payload_bytes", len(payload)),
		zap.Int("archive_bytes", len(archive)),
		zap.String("codec", s.codec.Name()),
		zap.Duration("duration", time.Since(start)),
	)
	return archive, idx, nil
}

// BuildFile loads a JSON corpus, builds it and writes the archive to outPath.
// The archive is written to a temporary file and renamed only on success.
func (s *Service) BuildFile(ctx context.Context, corpusPath, outPath string) (*memory.Index, error) {
	docs, err := document.LoadCorpusFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	archive, idx, err := s.Build(ctx, docs)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(outPath, archive); err != nil {
		return nil, err
	}
	s.logger.Info("Archive written", zap.String("path", outPath))
	return idx, nil
}

func writeAtomic(path string, data []byte) error {
	cleanPath := filepath.Clean(path)
	f, err := os.CreateTemp(filepath.Dir(cleanPath), filepath.Base(cleanPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpPath := f.Name()

	_, err = f.Write(data)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmpPath, cleanPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
