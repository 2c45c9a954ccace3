// Package chi serves a restored index over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/domain"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
	"github.com/totto/penpot-wizard-sub002/internal/metrics"
	healthuc "github.com/totto/penpot-wizard-sub002/internal/usecase/health"
	searchuc "github.com/totto/penpot-wizard-sub002/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeDimMismatch      = "vector_dim_mismatch"
	CodeProviderError    = "embedding_provider_error"
	CodeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server answers search and health requests for one index.
type Server struct {
	index         searchuc.Index
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResultItem is one hit.
type SearchResultItem struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	PageID string  `json:"page_id,omitempty"`
	URL    string  `json:"url,omitempty"`
	Text   string  `json:"text"`
}

// SearchResponse is the GET /search body.
type SearchResponse struct {
	Query string             `json:"query"`
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewServer creates an HTTP API server over idx.
func NewServer(idx searchuc.Index, search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		index:  idx,
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConfiguration, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Router mounts the API routes with recovery, request ids, request logging and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/search", s.SearchDocuments)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// SearchDocuments handles GET /search?q=&mode=&limit=&tolerance=&similarity=&property=&fusion=.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query parameter q is required")
		return
	}

	opts, err := searchOptionsFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	hits, err := s.search.Search(r.Context(), s.index, query, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(hits))
	for i, h := range hits {
		items[i] = searchResultToItem(h)
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Items: items, Total: len(items)})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchOptionsFromQuery(q map[string][]string) (request.Options, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	opts := request.Options{
		Mode:     mode.Mode(get("mode")),
		Property: get("property"),
		Fusion:   request.Fusion(get("fusion")),
	}
	var err error
	if v := get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil {
			return opts, errors.New("limit must be an integer")
		}
	}
	if v := get("tolerance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New("tolerance must be a number")
		}
		opts.Tolerance = request.Float(f)
	}
	if v := get("similarity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New("similarity must be a number")
		}
		opts.Similarity = request.Float(f)
	}
	return opts, nil
}

func searchResultToItem(h result.Hit) SearchResultItem {
	doc := h.Document()
	return SearchResultItem{
		ID:     h.ID(),
		Score:  h.Score(),
		PageID: doc.PageID(),
		URL:    doc.URL(),
		Text:   doc.Text(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-safe message. Configuration errors carry
// the caller's own input, so their detail is kept.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrConfiguration) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
