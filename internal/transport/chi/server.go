package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/logger"
	healthuc "github.com/kailas-cloud/vecvogue/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/vecvogue/internal/usecase/recommend"
)

// DefaultMaxBodyBytes bounds request bodies when NewServer gets zero.
const DefaultMaxBodyBytes = 10 << 20

// RecommendService answers recommendation requests.
type RecommendService interface {
	Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Response, error)
}

// HealthService reports component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP API.
type Server struct {
	recommend     RecommendService
	health        HealthService
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates a new HTTP server.
func NewServer(
	recommend RecommendService,
	health HealthService,
	logger *zap.Logger,
	maxBodyBytes int64,
) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		recommend:    recommend,
		health:       health,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrImageUnsupported, http.StatusBadRequest, codeImageUnsupported),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Route("/api", func(r gochi.Router) {
		r.Post("/recommend", s.PostRecommend)
		r.Get("/recommend", s.GetRecommend)
	})
}

// PostRecommend handles POST /api/recommend.
func (s *Server) PostRecommend(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req RecommendRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBadRequest, "request body too large")
			return
		}
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeBadRequest, "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}

	ucReq := recommenduc.Request{
		Query:       req.Query,
		ImageBase64: req.ImageBase64,
		Rerank:      req.Rerank,
	}
	if req.TopK != nil {
		if *req.TopK <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be positive")
			return
		}
		ucReq.TopK = *req.TopK
	}
	if req.GenderFilter != nil {
		ucReq.GenderFilter = *req.GenderFilter
	}

	s.serveRecommend(w, r, ucReq)
}

// GetRecommend handles GET /api/recommend. Image queries need the POST form.
func (s *Server) GetRecommend(w http.ResponseWriter, r *http.Request) {
	params, err := bindRecommendParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	ucReq := recommenduc.Request{
		Query:        derefString(params.Q),
		Rerank:       derefBool(params.Rerank),
		GenderFilter: derefString(params.GenderFilter),
	}
	if params.TopK != nil {
		if *params.TopK <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be positive")
			return
		}
		ucReq.TopK = *params.TopK
	}

	s.serveRecommend(w, r, ucReq)
}

func (s *Server) serveRecommend(w http.ResponseWriter, r *http.Request, req recommenduc.Request) {
	resp, err := s.recommend.Recommend(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	items := make([]ResultItem, len(resp.Results))
	for i, res := range resp.Results {
		items[i] = resultToItem(res, resp.Reranked)
	}
	writeJSON(w, http.StatusOK, RecommendResponse{
		Query:    resp.Query,
		Results:  items,
		Reranked: resp.Reranked,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToResponse(report))
}

func bindRecommendParams(r *http.Request) (RecommendParams, error) {
	var params RecommendParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		return params, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", query, &params.TopK); err != nil {
		return params, fmt.Errorf("invalid format for parameter top_k: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "rerank", query, &params.Rerank); err != nil {
		return params, fmt.Errorf("invalid format for parameter rerank: %w", err)
	}
	if err := runtime.BindQueryParameter(
		"form", true, false, "gender_filter", query, &params.GenderFilter,
	); err != nil {
		return params, fmt.Errorf("invalid format for parameter gender_filter: %w", err)
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage keeps wrapped upstream details out of responses, except
// for validation errors whose text is written for the caller.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrImageUnsupported,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
