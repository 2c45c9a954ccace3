package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// SyncCodec decompresses the whole archive in memory in one call.
type SyncCodec struct{}

// NewSync creates the in-memory codec.
func NewSync() *SyncCodec { return &SyncCodec{} }

// Name implements Codec.
func (*SyncCodec) Name() string { return string(Sync) }

// Compress implements Codec.
func (*SyncCodec) Compress(ctx context.Context, payload []byte) ([]byte, error) {
	return compress(ctx, payload)
}

// Decompress implements Codec.
func (*SyncCodec) Decompress(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkHeader(data); err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return out, nil
}
