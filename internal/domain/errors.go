package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals a missing or malformed input (paths, test cases, options).
	ErrConfiguration = errors.New("configuration error")
	// ErrArchiveFormat signals an archive that is not gzip, is truncated, or carries a corrupt payload.
	ErrArchiveFormat = errors.New("archive format error")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrSchemaMismatch signals a restored payload whose field set differs from the expected schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrDuplicateID signals a second document with an id already present in the index.
	ErrDuplicateID = errors.New("duplicate document id")
	// ErrInvalidDocument signals a corpus entry that cannot become a document.
	ErrInvalidDocument = errors.New("invalid document")
)

// DocumentError attaches the offending document id to an indexing failure.
type DocumentError struct {
	ID  string
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// NewDocumentError wraps err with the document id.
func NewDocumentError(id string, err error) error {
	return &DocumentError{ID: id, Err: err}
}

// Configurationf builds an ErrConfiguration with a formatted detail message.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
