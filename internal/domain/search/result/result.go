package result

import "github.com/totto/penpot-wizard-sub002/internal/domain/document"

// Hit is a single search hit.
type Hit struct {
	id    string
	score float64
	doc   document.Document
}

// New creates a search hit.
func New(id string, score float64, doc document.Document) Hit {
	return Hit{id: id, score: score, doc: doc}
}

// ID returns the result identifier.
func (h Hit) ID() string { return h.id }

// Score returns the relevance score.
func (h Hit) Score() float64 { return h.score }

// Document returns the matched document.
func (h Hit) Document() document.Document { return h.doc }
