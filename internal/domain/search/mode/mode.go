package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid combines lexical BM25 and vector similarity.
	Hybrid Mode = "hybrid"
	Vector Mode = "vector"
	// Fulltext runs BM25 only; no query embedding is generated.
	Fulltext Mode = "fulltext"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Vector || m == Fulltext
}

// NeedsVector reports whether the mode scores against a query vector.
func (m Mode) NeedsVector() bool {
	return m == Hybrid || m == Vector
}
