package request

import (
	"fmt"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
)

// Search parameter defaults and limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength    = 4096
	DefaultLimit      = 5
	MaxLimit          = 100
	DefaultTolerance  = 0.4
	DefaultSimilarity = 0.85
	DefaultProperty   = document.FieldEmbedding

	DefaultTextWeight   = 0.5
	DefaultVectorWeight = 0.5
)

// Fusion selects how lexical and vector scores are combined in hybrid mode.
type Fusion string

// Fusion strategies.
const (
	// FusionWeighted is a weighted sum of max-normalized BM25 and cosine similarity.
	FusionWeighted Fusion = "weighted"
	// FusionRRF is Reciprocal Rank Fusion, scaled so rank 1 in both lists scores 1.
	FusionRRF Fusion = "rrf"
)

// Weights are the hybrid fusion weights. They are normalized by their sum.
type Weights struct {
	Text   float64
	Vector float64
}

// Options are the caller-facing search knobs. Zero values mean "use the default".
// Tolerance and Similarity are pointers so an explicit 0 is kept: a tolerance
// of 0 admits only exact vector matches.
// Mode is left empty by WithDefaults so the store can pick vector mode for bare queries.
type Options struct {
	Mode       mode.Mode
	Limit      int
	Property   string
	Tolerance  *float64
	Similarity *float64
	Weights    Weights
	Fusion     Fusion
}

// Float returns a pointer to v, for setting Tolerance and Similarity.
func Float(v float64) *float64 { return &v }

// WithDefaults fills every unset field except Mode.
func (o Options) WithDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Property == "" {
		o.Property = DefaultProperty
	}
	if o.Tolerance == nil {
		o.Tolerance = Float(DefaultTolerance)
	}
	if o.Similarity == nil {
		o.Similarity = Float(DefaultSimilarity)
	}
	if o.Weights == (Weights{}) {
		o.Weights = Weights{Text: DefaultTextWeight, Vector: DefaultVectorWeight}
	}
	if o.Fusion == "" {
		o.Fusion = FusionWeighted
	}
	return o
}

// Validate checks option ranges. Call after WithDefaults.
func (o Options) Validate() error {
	if o.Mode != "" && !o.Mode.IsValid() {
		return domain.Configurationf("invalid search mode %q", o.Mode)
	}
	if o.Tolerance != nil && *o.Tolerance < 0 {
		return domain.Configurationf("tolerance must be >= 0, got %g", *o.Tolerance)
	}
	if o.Similarity != nil && (*o.Similarity < 0 || *o.Similarity > 1) {
		return domain.Configurationf("similarity must be between 0 and 1, got %g", *o.Similarity)
	}
	if o.Weights.Text < 0 || o.Weights.Vector < 0 {
		return domain.Configurationf("hybrid weights must be >= 0")
	}
	if o.Fusion != FusionWeighted && o.Fusion != FusionRRF {
		return domain.Configurationf("invalid fusion %q", o.Fusion)
	}
	return nil
}

// Request is a validated search query.
type Request struct {
	term   string
	vector []float32
	opts   Options
}

// New validates and normalizes search parameters. Either term or vector is required.
func New(term string, vector []float32, opts Options) (Request, error) {
	if term == "" && len(vector) == 0 {
		return Request{}, domain.Configurationf("query is required")
	}
	if len(term) > MaxQueryLength {
		return Request{}, domain.Configurationf("query too long (max %d chars)", MaxQueryLength)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Request{}, fmt.Errorf("search options: %w", err)
	}
	return Request{term: term, vector: vector, opts: opts}, nil
}

// Term returns the raw query text.
func (r Request) Term() string { return r.term }

// Vector returns the query vector, nil until the search hook or caller supplies one.
func (r Request) Vector() []float32 { return r.vector }

// Mode returns the search strategy; empty means the store decides.
func (r Request) Mode() mode.Mode { return r.opts.Mode }

// Limit returns the maximum hits to return.
func (r Request) Limit() int { return r.opts.Limit }

// Property returns the vector field scored against.
func (r Request) Property() string { return r.opts.Property }

// Tolerance returns the maximum cosine distance in vector mode.
func (r Request) Tolerance() float64 { return valueOr(r.opts.Tolerance, DefaultTolerance) }

// Similarity returns the minimum combined score in hybrid mode.
func (r Request) Similarity() float64 { return valueOr(r.opts.Similarity, DefaultSimilarity) }

// Weights returns the hybrid fusion weights.
func (r Request) Weights() Weights { return r.opts.Weights }

// Fusion returns the hybrid fusion strategy.
func (r Request) Fusion() Fusion { return r.opts.Fusion }

// Options returns the resolved options.
func (r Request) Options() Options { return r.opts }

// WithVector returns a copy carrying the query vector.
func (r Request) WithVector(v []float32) Request {
	r.vector = v
	return r
}

// WithMode returns a copy with the mode set.
func (r Request) WithMode(m mode.Mode) Request {
	r.opts.Mode = m
	return r
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
