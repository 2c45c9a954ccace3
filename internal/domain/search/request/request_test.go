package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("components", nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != "" {
		t.Errorf("Mode() = %q, want empty", r.Mode())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Property() != "embedding" {
		t.Errorf("Property() = %q", r.Property())
	}
	if r.Tolerance() != 0.4 {
		t.Errorf("Tolerance() = %g", r.Tolerance())
	}
	if r.Similarity() != 0.85 {
		t.Errorf("Similarity() = %g", r.Similarity())
	}
	if r.Weights() != (Weights{Text: 0.5, Vector: 0.5}) {
		t.Errorf("Weights() = %+v", r.Weights())
	}
	if r.Fusion() != FusionWeighted {
		t.Errorf("Fusion() = %q", r.Fusion())
	}
}

func TestNew_KeepsOverrides(t *testing.T) {
	r, err := New("q", nil, Options{
		Mode: mode.Vector, Limit: 3, Tolerance: Float(0.1), Similarity: Float(0.5),
		Weights: Weights{Text: 1}, Fusion: FusionRRF,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Vector || r.Limit() != 3 || r.Tolerance() != 0.1 || r.Similarity() != 0.5 {
		t.Errorf("overrides lost: %+v", r.Options())
	}
	if r.Weights() != (Weights{Text: 1}) || r.Fusion() != FusionRRF {
		t.Errorf("fusion overrides lost: %+v", r.Options())
	}
}

func TestNew_KeepsExplicitZeroThresholds(t *testing.T) {
	r, err := New("q", nil, Options{Tolerance: Float(0), Similarity: Float(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Tolerance() != 0 {
		t.Errorf("Tolerance() = %g, want 0", r.Tolerance())
	}
	if r.Similarity() != 0 {
		t.Errorf("Similarity() = %g, want 0", r.Similarity())
	}
}

func TestNew_ClampsLimit(t *testing.T) {
	r, err := New("q", nil, Options{Limit: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
}

func TestNew_VectorOnly(t *testing.T) {
	r, err := New("", []float32{1, 0}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Vector()) != 2 {
		t.Errorf("Vector() = %v", r.Vector())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		opts   Options
		errMsg string
	}{
		{"empty query", "", Options{}, "query is required"},
		{"long query", strings.Repeat("q", MaxQueryLength+1), Options{}, "too long"},
		{"bad mode", "q", Options{Mode: "semantic"}, "invalid search mode"},
		{"negative tolerance", "q", Options{Tolerance: Float(-1)}, "tolerance"},
		{"similarity above one", "q", Options{Similarity: Float(1.5)}, "similarity"},
		{"negative weight", "q", Options{Weights: Weights{Text: -1, Vector: 1}}, "weights"},
		{"bad fusion", "q", Options{Fusion: "max"}, "fusion"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.term, nil, tc.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error %q should contain %q", err, tc.errMsg)
			}
		})
	}
}

func TestWithVectorAndMode_Copy(t *testing.T) {
	r, _ := New("q", nil, Options{})
	r2 := r.WithVector([]float32{1}).WithMode(mode.Vector)
	if r.Vector() != nil || r.Mode() != "" {
		t.Error("original request must not change")
	}
	if len(r2.Vector()) != 1 || r2.Mode() != mode.Vector {
		t.Errorf("copy not updated: %+v", r2.Options())
	}
}
