package document

import (
	"fmt"
	"sort"
)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 163840 // 160KB

// Document is a searchable passage (immutable value object).
// ID is the identity; PageID and URL are alternate identifiers used only for matching.
type Document struct {
	id     string
	pageID string
	url    string
	text   string
	fields map[string]string
	vector []float32
}

// New validates and creates a Document without a vector.
// Extra fields (author, title, ...) are optional text-bearing metadata.
func New(id, pageID, url, text string, fields map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 512 {
		return Document{}, fmt.Errorf("document ID too long (max 512)")
	}
	if text == "" {
		return Document{}, fmt.Errorf("document %q: text is required", id)
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("document %q: text too large (max %d bytes)", id, MaxTextSize)
	}
	for k := range fields {
		if isReserved(k) {
			return Document{}, fmt.Errorf("document %q: field name %q is reserved", id, k)
		}
	}
	return Document{
		id:     id,
		pageID: pageID,
		url:    url,
		text:   text,
		fields: cloneStringMap(fields),
	}, nil
}

// Reconstruct creates a Document without validation (archive hydration).
func Reconstruct(id, pageID, url, text string, fields map[string]string, vector []float32) Document {
	return Document{id: id, pageID: pageID, url: url, text: text, fields: fields, vector: vector}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// PageID returns the page identifier, empty when the corpus has none.
func (d Document) PageID() string { return d.pageID }

// URL returns the document URL, empty when the corpus has none.
func (d Document) URL() string { return d.url }

// Text returns the passage text.
func (d Document) Text() string { return d.text }

// Fields returns the extra text fields.
func (d Document) Fields() map[string]string { return d.fields }

// Vector returns the embedding vector.
func (d Document) Vector() []float32 { return d.vector }

// WithVector returns a copy with the given vector set.
func (d Document) WithVector(v []float32) Document {
	return Document{
		id: d.id, pageID: d.pageID, url: d.url, text: d.text,
		fields: d.fields, vector: v,
	}
}

// Field resolves a field by name: id, pageId, url, text, or an extra field.
func (d Document) Field(name string) string {
	switch name {
	case FieldID:
		return d.id
	case FieldPageID:
		return d.pageID
	case FieldURL:
		return d.url
	case FieldText:
		return d.text
	default:
		return d.fields[name]
	}
}

// FieldNames returns extra field names in sorted order.
func (d Document) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for k := range d.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Known field names.
const (
	FieldID        = "id"
	FieldPageID    = "pageId"
	FieldURL       = "url"
	FieldText      = "text"
	FieldEmbedding = "embedding"
)

func isReserved(name string) bool {
	switch name {
	case FieldID, FieldPageID, FieldURL, FieldText, FieldEmbedding:
		return true
	}
	return false
}

func cloneStringMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
