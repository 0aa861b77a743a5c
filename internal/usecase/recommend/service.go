// Package recommend validates a recommendation request and runs retrieval,
// then optional reranking with a silent fallback to the retrieval order.
package recommend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
	"github.com/kailas-cloud/vecvogue/internal/logger"
	"github.com/kailas-cloud/vecvogue/internal/metrics"
)

// Defaults for Config fields left zero.
const (
	DefaultTopK = 6
	DefaultMaxTopK = 100
)

// Request is a recommendation query. At least one of Query and ImageBase64 must be set.
// TopK 0 means the configured default.
type Request struct {
	Query        string
	ImageBase64  string
	TopK         int
	Rerank       bool
	GenderFilter string
}

// Response carries the echoed query and the ordered results.
// Reranked is false when reranking was not requested or fell back.
type Response struct {
	Query    string
	Results  []domain.RankedResult
	Reranked bool
}

// Config holds request limits.
type Config struct {
	DefaultTopK   int
	MaxTopK       int
	RerankTimeout time.Duration
}

// Service orchestrates retrieval and reranking.
type Service struct {
	retriever Retriever
	reranker  Reranker
	cfg       Config
	logger    *zap.Logger
}

// New creates a Service. reranker may be nil, which turns every rerank request
// into a fallback.
func New(retriever Retriever, reranker Reranker, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = DefaultMaxTopK
	}
	return &Service{retriever: retriever, reranker: reranker, cfg: cfg, logger: logger}
}

// Recommend answers a request. Validation failures wrap domain.ErrInvalidRequest;
// retrieval failures are returned; rerank failures are logged and hidden.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)

	topK, g, image, err := s.validate(req, query)
	if err != nil {
		return Response{}, err
	}

	var candidates []domain.Candidate
	if image != nil {
		candidates, err = s.retriever.SearchImage(ctx, image, query, topK, g)
	} else {
		candidates, err = s.retriever.Search(ctx, query, topK, g)
	}
	if err != nil {
		return Response{}, err
	}

	resp := Response{Query: req.Query, Results: unranked(candidates)}
	if !req.Rerank {
		return resp, nil
	}

	ranked, err := s.rerank(ctx, query, candidates, g, topK)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues("fallback").Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Rerank failed, returning retrieval order",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return resp, nil
	}

	metrics.RerankRequestsTotal.WithLabelValues("success").Inc()
	resp.Results = ranked
	resp.Reranked = true
	return resp, nil
}

func (s *Service) rerank(
	ctx context.Context, query string, candidates []domain.Candidate, g gender.Gender, topK int,
) ([]domain.RankedResult, error) {
	if s.reranker == nil {
		return nil, errors.New("reranker not configured")
	}
	if s.cfg.RerankTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RerankTimeout)
		defer cancel()
	}
	return s.reranker.RerankWithGender(ctx, query, candidates, g, topK)
}

func (s *Service) validate(req Request, query string) (int, gender.Gender, []byte, error) {
	if query == "" && req.ImageBase64 == "" {
		return 0, gender.None, nil, fmt.Errorf("%w: q or image_base64 is required", domain.ErrInvalidRequest)
	}

	topK := req.TopK
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK < 0 || topK > s.cfg.MaxTopK {
		return 0, gender.None, nil, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidRequest, s.cfg.MaxTopK)
	}

	g, err := gender.Parse(req.GenderFilter)
	if err != nil {
		return 0, gender.None, nil, fmt.Errorf("%w: gender_filter: %w", domain.ErrInvalidRequest, err)
	}

	var image []byte
	if req.ImageBase64 != "" {
		image, err = DecodeImage(req.ImageBase64)
		if err != nil {
			return 0, gender.None, nil, fmt.Errorf("%w: image_base64: %w", domain.ErrInvalidRequest, err)
		}
	}

	return topK, g, image, nil
}

// DecodeImage decodes standard base64, with or without padding, and accepts
// a data URL prefix ("data:image/png;base64,").
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data url")
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

func unranked(candidates []domain.Candidate) []domain.RankedResult {
	out := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RankedResult{Candidate: c}
	}
	return out
}
