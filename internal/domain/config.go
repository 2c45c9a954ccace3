package domain

// VectorConfig holds internal vectorization settings.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the configuration the penpot documentation index is built with.
// Archives built with other dimensions fail schema verification on restore.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "text-embedding-3-small",
		Dimensions:     512,
		DistanceMetric: "cosine",
	}
}
