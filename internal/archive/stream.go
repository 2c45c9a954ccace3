package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// StreamingCodec decompresses through an io.Pipe: one goroutine writes the
// archive chunk by chunk, another reads the gzip stream into output chunks.
// Decompress returns once both sides are done.
type StreamingCodec struct {
	chunkSize int
}

// NewStreaming creates the chunked codec. Non-positive sizes use DefaultChunkSize.
func NewStreaming(chunkSize int) *StreamingCodec {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &StreamingCodec{chunkSize: chunkSize}
}

// Name implements Codec.
func (*StreamingCodec) Name() string { return string(Streaming) }

// ChunkSize returns the pump chunk size.
func (c *StreamingCodec) ChunkSize() int { return c.chunkSize }

// Compress implements Codec.
func (*StreamingCodec) Compress(ctx context.Context, payload []byte) ([]byte, error) {
	return compress(ctx, payload)
}

// Decompress implements Codec.
func (c *StreamingCodec) Decompress(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkHeader(data); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for off := 0; off < len(data); off += c.chunkSize {
			if err := gctx.Err(); err != nil {
				pw.CloseWithError(err)
				return err
			}
			end := min(off+c.chunkSize, len(data))
			if _, err := pw.Write(data[off:end]); err != nil {
				// The reader closed early and reports its own error.
				return nil
			}
		}
		return pw.Close()
	})

	var chunks [][]byte
	g.Go(func() error {
		defer pr.Close()
		zr, err := gzip.NewReader(pr)
		if err != nil {
			return err
		}
		defer zr.Close()
		buf := make([]byte, c.chunkSize)
		for {
			n, err := zr.Read(buf)
			if n > 0 {
				chunks = append(chunks, bytes.Clone(buf[:n]))
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return bytes.Join(chunks, nil), nil
}
