// Package hook holds the two-state embedding configuration an index is built with.
package hook

import (
	"strings"

	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
)

// Behavior decides what happens to vectors on an insert or search call.
type Behavior uint8

const (
	// PassThrough uses the vector already present on the document or query.
	PassThrough Behavior = iota
	// Generate computes a vector from text before the call proceeds.
	Generate
)

func (b Behavior) String() string {
	if b == Generate {
		return "generate"
	}
	return "pass-through"
}

// TextSeparator joins the configured text fields before insert-time embedding.
const TextSeparator = ". "

// Hook is the OnInsert/OnSearch pair. It is fixed when an index is constructed.
type Hook struct {
	OnInsert   Behavior
	OnSearch   Behavior
	TextFields []string
}

// ForBuild generates document vectors on insert from the given fields (default: text).
// Search behavior is irrelevant while building.
func ForBuild(textFields ...string) Hook {
	if len(textFields) == 0 {
		textFields = []string{document.FieldText}
	}
	return Hook{OnInsert: Generate, OnSearch: PassThrough, TextFields: textFields}
}

// ForRestore keeps stored vectors and generates query vectors on search.
func ForRestore() Hook {
	return Hook{OnInsert: PassThrough, OnSearch: Generate}
}

// InsertText returns the text embedded for doc: the configured fields, non-empty ones only, joined.
func (h Hook) InsertText(doc document.Document) string {
	fields := h.TextFields
	if len(fields) == 0 {
		fields = []string{document.FieldText}
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := strings.TrimSpace(doc.Field(f)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, TextSeparator)
}
