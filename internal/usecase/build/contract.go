package build

import (
	"context"
)

// Codec compresses the serialized index.
type Codec interface {
	Name() string
	Compress(ctx context.Context, payload []byte) ([]byte, error)
}
