// Package memory is the in-process document store: an ordered document list
// with a BM25 inverted index and a brute-force cosine vector index.
// An Index is bound to one schema and one embedding hook for its lifetime.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
)

// Index is safe for concurrent readers. Writers are serialized.
type Index struct {
	mu       sync.RWMutex
	schema   schema.Schema
	hook     hook.Hook
	embedder domain.Embedder
	dim      int

	docs []document.Document
	byID map[string]int
	mags []float64
	lex  *bm25
}

// New creates an empty index. The embedder is required when either hook
// behavior is Generate.
func New(s schema.Schema, h hook.Hook, embedder domain.Embedder) (*Index, error) {
	if (h.OnInsert == hook.Generate || h.OnSearch == hook.Generate) && embedder == nil {
		return nil, domain.Configurationf("embedding hook needs an embedder")
	}
	vf := s.DefaultVectorField()
	if vf.Dimensions <= 0 {
		return nil, domain.Configurationf("schema %s has no vector field", s)
	}
	return &Index{
		schema:   s,
		hook:     h,
		embedder: embedder,
		dim:      vf.Dimensions,
		byID:     make(map[string]int),
		lex:      newBM25(),
	}, nil
}

// Schema returns the schema the index is bound to.
func (x *Index) Schema() schema.Schema { return x.schema }

// Hook returns the embedding hook.
func (x *Index) Hook() hook.Hook { return x.hook }

// Dimensions returns the vector size.
func (x *Index) Dimensions() int { return x.dim }

// Len returns the number of documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Documents returns the documents in insertion order.
func (x *Index) Documents() []document.Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]document.Document(nil), x.docs...)
}

// Get returns a document by id.
func (x *Index) Get(id string) (document.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	i, ok := x.byID[id]
	if !ok {
		return document.Document{}, false
	}
	return x.docs[i], true
}

// Insert adds one document. With OnInsert=Generate the vector is computed from
// the hook's text fields; otherwise the document must already carry one.
// Failures are returned as *domain.DocumentError.
func (x *Index) Insert(ctx context.Context, doc document.Document) error {
	prepared, err := x.prepare(ctx, doc)
	if err != nil {
		return domain.NewDocumentError(doc.ID(), err)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.appendLocked(prepared); err != nil {
		return domain.NewDocumentError(doc.ID(), err)
	}
	return nil
}

// InsertMultiple inserts docs in order. Vectors are generated by up to
// concurrency workers, documents are appended in input order regardless.
// Nothing is appended when any document fails.
func (x *Index) InsertMultiple(ctx context.Context, docs []document.Document, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	prepared := make([]document.Document, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			p, err := x.prepare(gctx, doc)
			if err != nil {
				return domain.NewDocumentError(doc.ID(), err)
			}
			prepared[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	seen := make(map[string]struct{}, len(prepared))
	for _, doc := range prepared {
		if _, dup := x.byID[doc.ID()]; dup {
			return domain.NewDocumentError(doc.ID(), domain.ErrDuplicateID)
		}
		if _, dup := seen[doc.ID()]; dup {
			return domain.NewDocumentError(doc.ID(), domain.ErrDuplicateID)
		}
		seen[doc.ID()] = struct{}{}
	}
	for _, doc := range prepared {
		if err := x.appendLocked(doc); err != nil {
			return domain.NewDocumentError(doc.ID(), err)
		}
	}
	return nil
}

func (x *Index) prepare(ctx context.Context, doc document.Document) (document.Document, error) {
	if x.hook.OnInsert == hook.Generate {
		res, err := x.embedder.Embed(ctx, x.hook.InsertText(doc))
		if err != nil {
			return document.Document{}, providerError(err)
		}
		doc = doc.WithVector(res.Embedding)
	}
	if len(doc.Vector()) != x.dim {
		return document.Document{}, fmt.Errorf("%w: expected %d, got %d",
			domain.ErrVectorDimMismatch, x.dim, len(doc.Vector()))
	}
	return doc, nil
}

func (x *Index) appendLocked(doc document.Document) error {
	if _, dup := x.byID[doc.ID()]; dup {
		return domain.ErrDuplicateID
	}
	x.byID[doc.ID()] = len(x.docs)
	x.docs = append(x.docs, doc)
	x.mags = append(x.mags, magnitude(doc.Vector()))
	x.lex.add(lexicalText(doc))
	return nil
}

// providerError tags err as an embedding provider failure unless it already is one.
func providerError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProvider) {
		return fmt.Errorf("embed: %w", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
}
