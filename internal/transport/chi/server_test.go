package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/db/memory"
	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/document"
	"github.com/totto/penpot-wizard-sub002/internal/domain/hook"
	"github.com/totto/penpot-wizard-sub002/internal/domain/schema"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
	"github.com/totto/penpot-wizard-sub002/internal/embedding/hashing"
	healthuc "github.com/totto/penpot-wizard-sub002/internal/usecase/health"
	searchuc "github.com/totto/penpot-wizard-sub002/internal/usecase/search"
)

// --- Mocks ---

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type failingIndex struct{ err error }

func (f failingIndex) Search(context.Context, request.Request) ([]result.Hit, error) { return nil, f.err }

type panicIndex struct{}

func (panicIndex) Search(context.Context, request.Request) ([]result.Hit, error) { panic("boom") }

// --- Helpers ---

func testIndex(t *testing.T) *memory.Index {
	t.Helper()
	emb := hashing.NewEmbedder(512)
	built, err := memory.New(schema.Default(512), hook.ForBuild(), emb)
	if err != nil {
		t.Fatal(err)
	}
	docs := []struct{ id, page, url, text string }{
		{"components", "guide/components", "https://example.com/components", "Components are reusable elements shared across files."},
		{"grids", "guide/grids", "https://example.com/grids", "Grid layouts align elements in rows and columns."},
	}
	for _, d := range docs {
		doc, err := document.New(d.id, d.page, d.url, d.text, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := built.Insert(context.Background(), doc); err != nil {
			t.Fatal(err)
		}
	}
	payload, err := built.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	idx, err := memory.Decode(payload, hook.ForRestore(), emb)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func newTestServer(idx searchuc.Index, cache healthuc.CachePinger) http.Handler {
	logger := zap.NewNop()
	return NewServer(idx, searchuc.New(logger), healthuc.New(cache, nil), logger).Router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

// --- Tests ---

func TestSearch_OK(t *testing.T) {
	h := newTestServer(testIndex(t), nil)

	rr := get(t, h, "/search?q=reusable+components+shared&mode=fulltext&limit=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %+v", resp)
	}
	item := resp.Items[0]
	if item.ID != "components" || item.URL != "https://example.com/components" || item.PageID != "guide/components" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	h := newTestServer(testIndex(t), nil)

	rr := get(t, h, "/search?q=zebra&mode=fulltext")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", rr.Body.String())
	}
}

func TestSearch_BadRequests(t *testing.T) {
	h := newTestServer(testIndex(t), nil)

	tests := []struct {
		target string
		code   string
	}{
		{"/search", CodeBadRequest},
		{"/search?q=x&limit=ten", CodeBadRequest},
		{"/search?q=x&tolerance=wide", CodeBadRequest},
		{"/search?q=x&similarity=high", CodeBadRequest},
		{"/search?q=x&mode=semantic", CodeValidationFailed},
		{"/search?q=x&property=title", CodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rr := get(t, h, tc.target)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tc.code {
				t.Errorf("expected code %q, got %q", tc.code, resp.Code)
			}
		})
	}
}

func TestSearch_ProviderError(t *testing.T) {
	err := errors.Join(domain.ErrEmbeddingProvider, errors.New("secret upstream detail"))
	h := newTestServer(failingIndex{err: err}, nil)

	rr := get(t, h, "/search?q=x")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
}

func TestSearch_InternalError(t *testing.T) {
	h := newTestServer(failingIndex{err: errors.New("disk on fire")}, nil)

	rr := get(t, h, "/search?q=x")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
}

func TestRecoverer(t *testing.T) {
	h := newTestServer(panicIndex{}, nil)

	rr := get(t, h, "/search?q=x")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), CodeInternalError) {
		t.Errorf("expected JSON error body, got %s", rr.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	rr := get(t, newTestServer(testIndex(t), stubPinger{}), "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Checks["cache"] != "ok" {
		t.Errorf("unexpected health %+v", resp)
	}

	rr = get(t, newTestServer(testIndex(t), stubPinger{err: errors.New("down")}), "/healthz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(testIndex(t), nil)
	_ = get(t, h, "/search?q=grid&mode=fulltext")

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ragindex_http_requests_total") {
		t.Error("expected http metrics in exposition")
	}
}
