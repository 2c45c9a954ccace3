package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
	logpkg "github.com/totto/penpot-wizard-sub002/internal/logger"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
)

// modeAuto labels searches where the index picks the mode.
const modeAuto = "auto"

// Service runs searches against an index.
type Service struct {
	logger *zap.Logger
}

// New creates a search service.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Search queries idx with the raw query text. Unset options fall back to the
// defaults in package request. An empty result is not an error.
func (s *Service) Search(
	ctx context.Context, idx Index, query string, opts request.Options,
) ([]result.Hit, error) {
	label := string(opts.Mode)
	switch {
	case label == "":
		label = modeAuto
	case !opts.Mode.IsValid():
		label = "invalid"
	}
	start := time.Now()

	req, err := request.New(query, nil, opts)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(label, "invalid").Inc()
		return nil, err
	}

	hits, err := idx.Search(ctx, req)
	metrics.SearchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("search: %w", err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(label, "ok").Inc()
	metrics.SearchHits.WithLabelValues(label).Observe(float64(len(hits)))

	logpkg.Or(ctx, s.logger).Debug("Search completed",
		zap.String("query", query),
		zap.String("mode", label),
		zap.Int("hits", len(hits)),
		zap.Duration("duration", time.Since(start)),
	)
	return hits, nil
}
