// Package archive compresses index payloads into gzip archives and back.
// Two interchangeable decompressors exist: a synchronous in-memory one and a
// streaming one that pumps the input through a pipe in fixed-size chunks.
// The implementation is picked once, when the codec is constructed.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/gzip"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
)

// Kind selects a decompression strategy.
type Kind string

// Codec kinds.
const (
	Sync      Kind = "sync"
	Streaming Kind = "streaming"
)

// DefaultChunkSize is the streaming chunk size when none is configured.
const DefaultChunkSize = 32 * 1024

// ErrUnsupportedFormat is returned for input that is not a complete gzip stream.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported archive format", domain.ErrArchiveFormat)

// Codec turns a serialized index into archive bytes and back.
type Codec interface {
	Name() string
	Compress(ctx context.Context, payload []byte) ([]byte, error)
	Decompress(ctx context.Context, data []byte) ([]byte, error)
}

// New returns the codec for kind. An empty kind selects Sync.
func New(kind Kind, chunkSize int) (Codec, error) {
	switch kind {
	case Sync, "":
		return NewSync(), nil
	case Streaming:
		return NewStreaming(chunkSize), nil
	default:
		return nil, domain.Configurationf("unknown archive codec %q", kind)
	}
}

// compress gzips payload. Output depends only on payload, never on time.
func compress(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// gzipHeaderSize is the fixed part of a gzip member header.
const gzipHeaderSize = 10

func checkHeader(data []byte) error {
	if len(data) < gzipHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than a gzip header", ErrUnsupportedFormat, len(data))
	}
	if data[0] != 0x1f || data[1] != 0x8b {
		return fmt.Errorf("%w: missing gzip magic, got %#x %#x", ErrUnsupportedFormat, data[0], data[1])
	}
	return nil
}
