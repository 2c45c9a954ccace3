package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
)

// Entry is one corpus object as authored: id, optional pageId/url, text,
// plus any other string-valued properties (author, title, ...).
type Entry struct {
	ID     string
	PageID string
	URL    string
	Text   string
	Fields map[string]string
}

// UnmarshalJSON collects the known keys and keeps every other string property as an extra field.
// Non-string extra properties are ignored.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			if isReserved(k) && k != FieldEmbedding {
				return fmt.Errorf("field %q must be a string", k)
			}
			continue
		}
		switch k {
		case FieldID:
			e.ID = s
		case FieldPageID:
			e.PageID = s
		case FieldURL:
			e.URL = s
		case FieldText:
			e.Text = s
		case FieldEmbedding:
		default:
			if e.Fields == nil {
				e.Fields = make(map[string]string)
			}
			e.Fields[k] = s
		}
	}
	return nil
}

// ToDocument validates the entry.
func (e Entry) ToDocument() (Document, error) {
	return New(e.ID, e.PageID, e.URL, e.Text, e.Fields)
}

// LoadCorpus decodes a JSON array of corpus entries into documents, preserving order.
// Duplicate ids are rejected.
func LoadCorpus(r io.Reader) ([]Document, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decode corpus: %w", domain.ErrConfiguration, err)
	}
	docs := make([]Document, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		doc, err := e.ToDocument()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", domain.ErrInvalidDocument, i, err)
		}
		if _, dup := seen[doc.ID()]; dup {
			return nil, fmt.Errorf("entry %d: %w: %q", i, domain.ErrDuplicateID, doc.ID())
		}
		seen[doc.ID()] = struct{}{}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadCorpusFile reads a corpus JSON file.
func LoadCorpusFile(path string) ([]Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open corpus: %w", domain.ErrConfiguration, err)
	}
	defer f.Close()
	return LoadCorpus(f)
}
