package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/embedding/hashing"
)

const testDim = 512

// countingEmbedder wraps the hashing embedder and records calls.
type countingEmbedder struct {
	mu     sync.Mutex
	inner  *hashing.Embedder
	texts  []string
	failOn string
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: hashing.NewEmbedder(testDim)}
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()
	if e.failOn != "" && text == e.failOn {
		return domain.EmbeddingResult{}, errors.New("provider unavailable")
	}
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.texts)
}

func mustDoc(t *testing.T, id, pageID, url, text string, fields map[string]string) document.Document {
	t.Helper()
	doc, err := document.New(id, pageID, url, text, fields)
	if err != nil {
		t.Fatalf("document.New(%q): %v", id, err)
	}
	return doc
}

// quotes is a five-document corpus of short attributed quotes.
func quotes(t *testing.T) []document.Document {
	t.Helper()
	return []document.Document{
		mustDoc(t, "einstein-1", "", "", "Imagination is more important than knowledge.", map[string]string{"author": "Albert Einstein"}),
		mustDoc(t, "keller-1", "", "", "Keep your face to the sunshine and you cannot see a shadow.", map[string]string{"author": "Helen Keller"}),
		mustDoc(t, "wilde-1", "", "", "Be yourself; everyone else is already taken.", map[string]string{"author": "Oscar Wilde"}),
		mustDoc(t, "jobs-1", "", "", "Design is not just what it looks like and feels like. Design is how it works.", map[string]string{"author": "Steve Jobs"}),
		mustDoc(t, "twain-1", "", "", "The secret of getting ahead is getting started.", map[string]string{"author": "Mark Twain"}),
	}
}

func buildIndex(t *testing.T, emb domain.Embedder, docs []document.Document, fields ...string) *Index {
	t.Helper()
	x, err := New(schema.Default(testDim), hook.ForBuild(fields...), emb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := x.InsertMultiple(context.Background(), docs, 1); err != nil {
		t.Fatalf("InsertMultiple: %v", err)
	}
	return x
}
