package memory

import (
	"math"
	"strings"

	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/tokenize"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25 is an append-only inverted index over document text and extra fields.
type bm25 struct {
	postings map[string][]posting
	lengths  []int
	totalLen int
}

type posting struct {
	doc int
	tf  int
}

func newBM25() *bm25 {
	return &bm25{postings: make(map[string][]posting)}
}

// lexicalText is the text a document is lexically indexed by: its passage
// followed by extra field values in field-name order.
func lexicalText(doc document.Document) string {
	names := doc.FieldNames()
	if len(names) == 0 {
		return doc.Text()
	}
	parts := make([]string, 0, len(names)+1)
	parts = append(parts, doc.Text())
	for _, n := range names {
		parts = append(parts, doc.Field(n))
	}
	return strings.Join(parts, " ")
}

func (x *bm25) add(text string) {
	terms := tokenize.Terms(text)
	doc := len(x.lengths)
	counts := make(map[string]int, len(terms))
	order := make([]string, 0, len(terms))
	for _, t := range terms {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	for _, t := range order {
		x.postings[t] = append(x.postings[t], posting{doc: doc, tf: counts[t]})
	}
	x.lengths = append(x.lengths, len(terms))
	x.totalLen += len(terms)
}

// scores returns one BM25 score per document, zero where no query term occurs.
func (x *bm25) scores(query string) []float64 {
	out := make([]float64, len(x.lengths))
	n := len(x.lengths)
	if n == 0 {
		return out
	}
	avgdl := float64(x.totalLen) / float64(n)
	if avgdl == 0 {
		return out
	}
	seen := make(map[string]struct{})
	for _, t := range tokenize.Terms(query) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		plist := x.postings[t]
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
		for _, p := range plist {
			tf := float64(p.tf)
			norm := bm25K1 * (1 - bm25B + bm25B*float64(x.lengths[p.doc])/avgdl)
			out[p.doc] += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
	}
	return out
}
