package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
)

// scoreEpsilon absorbs float32 rounding when comparing against thresholds.
const scoreEpsilon = 1e-6

type scored struct {
	idx   int
	score float64
}

// Search runs req against the index. With OnSearch=Generate and no query
// vector, the raw query is embedded first; a request without a mode then runs
// in vector mode. Otherwise an empty mode means hybrid.
// Hits are ordered by descending score, ties in insertion order.
func (x *Index) Search(ctx context.Context, req request.Request) ([]result.Hit, error) {
	if _, ok := x.schema.VectorField(req.Property()); !ok {
		return nil, domain.Configurationf("unknown vector property %q", req.Property())
	}

	req, err := x.applySearchHook(ctx, req)
	if err != nil {
		return nil, err
	}
	m := req.Mode()
	if m == "" {
		m = mode.Hybrid
	}
	if m.NeedsVector() {
		if len(req.Vector()) == 0 {
			return nil, domain.Configurationf("%s search needs a query vector", m)
		}
		if len(req.Vector()) != x.dim {
			return nil, fmt.Errorf("%w: query has %d dims, index has %d",
				domain.ErrVectorDimMismatch, len(req.Vector()), x.dim)
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []scored
	switch m {
	case mode.Vector:
		hits = x.searchVector(req)
	case mode.Fulltext:
		hits = x.searchFulltext(req)
	case mode.Hybrid:
		if req.Fusion() == request.FusionRRF {
			hits = x.searchRRF(req)
		} else {
			hits = x.searchWeighted(req)
		}
	default:
		return nil, domain.Configurationf("unsupported search mode %q", m)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > req.Limit() {
		hits = hits[:req.Limit()]
	}
	out := make([]result.Hit, len(hits))
	for i, h := range hits {
		doc := x.docs[h.idx]
		out[i] = result.New(doc.ID(), h.score, doc)
	}
	return out, nil
}

func (x *Index) applySearchHook(ctx context.Context, req request.Request) (request.Request, error) {
	if x.hook.OnSearch != hook.Generate || len(req.Vector()) > 0 || req.Mode() == mode.Fulltext {
		return req, nil
	}
	if req.Term() == "" {
		return req, domain.Configurationf("query is required")
	}
	res, err := x.embedder.Embed(ctx, req.Term())
	if err != nil {
		return req, fmt.Errorf("vectorize query: %w", providerError(err))
	}
	req = req.WithVector(res.Embedding)
	if req.Mode() == "" {
		req = req.WithMode(mode.Vector)
	}
	return req, nil
}

// cosines returns the cosine similarity of every document to the query vector.
func (x *Index) cosines(q []float32) []float64 {
	qm := magnitude(q)
	out := make([]float64, len(x.docs))
	for i, doc := range x.docs {
		out[i] = cosine(q, qm, doc.Vector(), x.mags[i])
	}
	return out
}

// searchVector keeps documents within the cosine distance tolerance.
func (x *Index) searchVector(req request.Request) []scored {
	var hits []scored
	for i, c := range x.cosines(req.Vector()) {
		if 1-c <= req.Tolerance()+scoreEpsilon {
			hits = append(hits, scored{idx: i, score: c})
		}
	}
	return hits
}

func (x *Index) searchFulltext(req request.Request) []scored {
	var hits []scored
	for i, s := range x.lex.scores(req.Term()) {
		if s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}
	return hits
}

// searchWeighted combines max-normalized BM25 and non-negative cosine by the
// request weights and keeps documents at or above the similarity threshold.
func (x *Index) searchWeighted(req request.Request) []scored {
	lex := x.lex.scores(req.Term())
	var maxLex float64
	for _, s := range lex {
		if s > maxLex {
			maxLex = s
		}
	}
	w := req.Weights()
	total := w.Text + w.Vector

	var hits []scored
	for i, c := range x.cosines(req.Vector()) {
		var text float64
		if maxLex > 0 {
			text = lex[i] / maxLex
		}
		score := (w.Text*text + w.Vector*max(0, c)) / total
		if score >= req.Similarity()-scoreEpsilon {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	return hits
}

func (x *Index) searchRRF(req request.Request) []scored {
	var vec, lex []scored
	for i, c := range x.cosines(req.Vector()) {
		if c > 0 {
			vec = append(vec, scored{idx: i, score: c})
		}
	}
	for i, s := range x.lex.scores(req.Term()) {
		if s > 0 {
			lex = append(lex, scored{idx: i, score: s})
		}
	}
	sort.SliceStable(vec, func(i, j int) bool { return vec[i].score > vec[j].score })
	sort.SliceStable(lex, func(i, j int) bool { return lex[i].score > lex[j].score })

	var hits []scored
	for _, h := range fuseRRF(len(x.docs), vec, lex) {
		if h.score >= req.Similarity()-scoreEpsilon {
			hits = append(hits, h)
		}
	}
	return hits
}
