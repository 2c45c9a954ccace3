// Package validation replays query test cases against an index and reports
// which expected identifiers were found.
package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/testcase"
	logpkg "github.com/totto/penpot-wizard-sub002/internal/logger"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/search"
)

// Service validates an index against test cases.
type Service struct {
	search  Searcher
	matcher testcase.Matcher
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher replaces the default permissive matcher.
func WithMatcher(m testcase.Matcher) Option {
	return func(s *Service) { s.matcher = m }
}

// New creates a validation service.
func New(searcher Searcher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{search: searcher, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// schemaHolder is implemented by indexes that expose their schema.
type schemaHolder interface {
	Schema() schema.Schema
}

// Validate runs every case in order. A case whose search fails with a provider
// error is recorded as errored and the run continues. Invalid cases or options
// abort the run with ErrConfiguration and no report.
func (s *Service) Validate(
	ctx context.Context, idx search.Index, cases []testcase.Case, opts request.Options,
) (*testcase.Report, error) {
	if err := testcase.Check(cases); err != nil {
		return nil, err
	}
	if err := checkOptions(idx, cases[0].Query, opts); err != nil {
		return nil, err
	}

	report := testcase.NewReport(s.now())
	ctx = logpkg.WithRunID(ctx, s.logger, report.RunID)
	log := logpkg.FromContext(ctx)
	for i, c := range cases {
		o := s.run(ctx, idx, c, opts)
		if errors.Is(o.Err, domain.ErrConfiguration) {
			log.Error("Validation aborted", zap.Int("case", i+1), zap.Error(o.Err))
			return nil, fmt.Errorf("case %d: %w", i+1, o.Err)
		}
		report.Add(o)

		fields := []zap.Field{
			zap.Int("case", i+1),
			zap.String("query", c.Query),
			zap.String("expected", c.ExpectedPath),
		}
		switch {
		case o.Err != nil:
			metrics.ValidationCasesTotal.WithLabelValues("error").Inc()
			log.Warn("Case errored", append(fields, zap.Error(o.Err))...)
		case o.Passed:
			metrics.ValidationCasesTotal.WithLabelValues("pass").Inc()
			log.Info("Case passed", append(fields,
				zap.Int("rank", o.MatchRank), zap.String("matched_by", o.MatchedBy))...)
		default:
			metrics.ValidationCasesTotal.WithLabelValues("fail").Inc()
			log.Warn("Case failed", append(fields, zap.Strings("candidates", o.Candidates))...)
		}
	}
	report.Duration = s.now().Sub(report.Started)

	log.Info("Validation finished",
		zap.Int("total", report.Total()),
		zap.Int("passed", report.PassedCount()),
		zap.Int("failed", report.FailedCount()),
		zap.Int("errored", report.ErroredCount()),
	)
	return report, nil
}

// checkOptions rejects options that would fail every case.
func checkOptions(idx search.Index, query string, opts request.Options) error {
	req, err := request.New(query, nil, opts)
	if err != nil {
		return err
	}
	if h, ok := idx.(schemaHolder); ok {
		if _, ok := h.Schema().VectorField(req.Property()); !ok {
			return domain.Configurationf("unknown vector property %q", req.Property())
		}
	}
	return nil
}

func (s *Service) run(ctx context.Context, idx search.Index, c testcase.Case, opts request.Options) testcase.Outcome {
	o := testcase.Outcome{Case: c}
	hits, err := s.search.Search(ctx, idx, c.Query, opts)
	if err != nil {
		o.Err = err
		return o
	}
	o.Candidates = testcase.Candidates(hits)
	if rank, by := s.matcher.Match(c.ExpectedPath, hits); rank >= 0 {
		o.Passed = true
		o.MatchRank = rank + 1
		o.MatchedBy = by
	}
	return o
}
