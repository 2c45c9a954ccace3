package archive

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
)

func payload(n int) []byte {
	r := rand.New(rand.NewSource(42))
	out := make([]byte, n)
	for i := range out {
		// Half-random so the payload compresses but is not trivial.
		if i%2 == 0 {
			out[i] = byte(r.Intn(256))
		} else {
			out[i] = 'a'
		}
	}
	return out
}

func codecs() []Codec {
	return []Codec{NewSync(), NewStreaming(1), NewStreaming(7), NewStreaming(4096), NewStreaming(0)}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
	}{
		{"", "sync"},
		{Sync, "sync"},
		{Streaming, "streaming"},
	}
	for _, tc := range tests {
		c, err := New(tc.kind, 0)
		if err != nil {
			t.Fatalf("New(%q): %v", tc.kind, err)
		}
		if c.Name() != tc.name {
			t.Errorf("New(%q).Name() = %q, want %q", tc.kind, c.Name(), tc.name)
		}
	}
	if _, err := New("zip", 0); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown kind, got %v", err)
	}
}

func TestNewStreaming_DefaultChunk(t *testing.T) {
	if got := NewStreaming(-3).ChunkSize(); got != DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", got)
	}
}

func TestCodec_Equivalence(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{0, 1, 100, 70_000} {
		in := payload(size)
		archive, err := NewSync().Compress(ctx, in)
		if err != nil {
			t.Fatalf("Compress: %v", err)
		}
		for _, c := range codecs() {
			out, err := c.Decompress(ctx, archive)
			if err != nil {
				t.Fatalf("%s size=%d: %v", c.Name(), size, err)
			}
			if !bytes.Equal(out, in) {
				t.Errorf("%s size=%d: payload differs (%d vs %d bytes)", c.Name(), size, len(out), len(in))
			}
		}
	}
}

func TestCompress_Deterministic(t *testing.T) {
	ctx := context.Background()
	in := payload(5000)
	a, _ := NewSync().Compress(ctx, in)
	b, _ := NewStreaming(16).Compress(ctx, in)
	if !bytes.Equal(a, b) {
		t.Error("compressing the same payload must produce identical bytes")
	}
}

func TestDecompress_Rejects(t *testing.T) {
	ctx := context.Background()
	valid, _ := NewSync().Compress(ctx, payload(2000))

	corruptBody := append([]byte(nil), valid...)
	for i := gzipHeaderSize; i < len(corruptBody)-8; i++ {
		corruptBody[i] ^= 0xff
	}

	inputs := map[string][]byte{
		"empty":          nil,
		"short":          {0x1f, 0x8b, 8},
		"json":           []byte(`{"documents": []} padding padding`),
		"truncated":      valid[:len(valid)/2],
		"missing footer": valid[:len(valid)-4],
		"corrupt body":   corruptBody,
		"trailing junk":  append(append([]byte(nil), valid...), []byte("not gzip at all")...),
	}
	for name, in := range inputs {
		for _, c := range codecs() {
			t.Run(name+"/"+c.Name(), func(t *testing.T) {
				out, err := c.Decompress(ctx, in)
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				if !errors.Is(err, domain.ErrArchiveFormat) {
					t.Errorf("expected ErrArchiveFormat in chain, got %v", err)
				}
				if out != nil {
					t.Error("expected no output on failure")
				}
			})
		}
	}
}

func TestDecompress_Canceled(t *testing.T) {
	valid, _ := NewSync().Compress(context.Background(), payload(1000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, c := range codecs() {
		if _, err := c.Decompress(ctx, valid); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", c.Name(), err)
		}
	}
}
