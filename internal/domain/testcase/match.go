package testcase

import (
	"strings"

	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
)

var strippedExtensions = []string{".md", ".html", ".htm"}

// Normalize strips one trailing .md, .html or .htm extension, case-insensitively.
func Normalize(expected string) string {
	lower := strings.ToLower(expected)
	for _, ext := range strippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return expected[:len(expected)-len(ext)]
		}
	}
	return expected
}

// Predicate names, reported with a match for diagnostics.
const (
	ByURLEqual          = "url-equal"
	ByURLContains       = "url-contains"
	ByPageID            = "page-id"
	ByURLContainsNormal = "url-contains-normalized"
	ByDocumentID        = "document-id"
	ByResultID          = "result-id"
)

// Matcher decides whether a hit list satisfies an expected identifier.
// The default matcher accepts any predicate on any hit; Strict only accepts
// equality with the normalized identifier on url, page id or document id.
type Matcher struct {
	Strict bool
}

// Match returns the index of the first matching hit and the predicate that matched, or -1.
func (m Matcher) Match(expected string, hits []result.Hit) (int, string) {
	norm := Normalize(expected)
	for i, h := range hits {
		var by string
		if m.Strict {
			by = matchStrict(norm, h)
		} else {
			by = matchLoose(expected, norm, h)
		}
		if by != "" {
			return i, by
		}
	}
	return -1, ""
}

func matchLoose(expected, norm string, h result.Hit) string {
	doc := h.Document()
	url := doc.URL()
	switch {
	case url != "" && url == expected:
		return ByURLEqual
	case url != "" && strings.Contains(url, expected):
		return ByURLContains
	case doc.PageID() != "" && (doc.PageID() == expected || doc.PageID() == norm):
		return ByPageID
	case url != "" && strings.Contains(url, norm):
		return ByURLContainsNormal
	case doc.ID() == expected || doc.ID() == norm:
		return ByDocumentID
	case h.ID() == expected || h.ID() == norm:
		return ByResultID
	}
	return ""
}

func matchStrict(norm string, h result.Hit) string {
	doc := h.Document()
	switch {
	case doc.URL() != "" && Normalize(doc.URL()) == norm:
		return ByURLEqual
	case doc.PageID() != "" && Normalize(doc.PageID()) == norm:
		return ByPageID
	case doc.ID() == norm:
		return ByDocumentID
	}
	return ""
}

// Candidates lists a diagnostic identifier per hit: url, else page id, else id.
func Candidates(hits []result.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		doc := h.Document()
		switch {
		case doc.URL() != "":
			out[i] = doc.URL()
		case doc.PageID() != "":
			out[i] = doc.PageID()
		default:
			out[i] = h.ID()
		}
	}
	return out
}
