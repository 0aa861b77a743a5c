package vecvogue

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/config"
	"github.com/kailas-cloud/vecvogue/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/vecvogue/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/vecvogue/internal/usecase/recommend"
	rerankuc "github.com/kailas-cloud/vecvogue/internal/usecase/rerank"
	retrievaluc "github.com/kailas-cloud/vecvogue/internal/usecase/retrieval"
)

// Internal interfaces for test doubles.
type recommendUseCase interface {
	Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Response, error)
}

// catalogInfo exposes the loaded build.
type catalogInfo interface {
	Len() int
	Dim() int
}

// Client is the vecvogue entry point.
type Client struct {
	catalog      catalogInfo
	recommendSvc recommendUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New loads the catalog and wires the retrieval pipeline.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("vecvogue: embedder required (use WithEmbedder)")
	}
	if cfg.indexPath == "" {
		cfg.indexPath = config.DefaultIndexPath
	}
	if cfg.metaPath == "" {
		cfg.metaPath = config.DefaultMetaPath
	}

	repo, err := catalog.Load(cfg.indexPath, cfg.metaPath)
	if err != nil {
		return nil, fmt.Errorf("vecvogue: load catalog: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(repo, cfg, obs), nil
}

func wireClient(repo *catalog.Repo, cfg *clientConfig, obs *observer) *Client {
	retrievalOpts := []retrievaluc.Option{retrievaluc.WithOverfetchFactor(cfg.overfetchFactor)}
	if cfg.imageEmbedder != nil {
		retrievalOpts = append(retrievalOpts,
			retrievaluc.WithImageEmbedder(&imageEmbedderAdapter{inner: cfg.imageEmbedder}))
	}
	retrievalSvc := retrievaluc.New(repo, &embedderAdapter{inner: cfg.embedder}, retrievalOpts...)

	// Pass a nil interface, not a typed nil pointer, when reranking is off.
	var reranker recommenduc.Reranker
	if cfg.scorer != nil {
		reranker = rerankuc.New(cfg.scorer)
	}
	recommendSvc := recommenduc.New(retrievalSvc, reranker, recommenduc.Config{
		DefaultTopK:   cfg.defaultTopK,
		MaxTopK:       cfg.maxTopK,
		RerankTimeout: cfg.rerankTimeout,
	}, zap.NewNop())

	var embeddingChecker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(HealthChecker); ok {
		embeddingChecker = hc
	}

	return &Client{
		catalog:      repo,
		recommendSvc: recommendSvc,
		healthSvc:    healthuc.New(repo, embeddingChecker, nil),
		obs:          obs,
	}
}

// Len returns the number of products in the loaded catalog.
func (c *Client) Len() int { return c.catalog.Len() }

// Dim returns the vector dimension of the loaded catalog.
func (c *Client) Dim() int { return c.catalog.Dim() }

// Recommend retrieves, filters and optionally reranks products for q.
// Rerank failures are not errors; Response.Reranked reports them.
func (c *Client) Recommend(ctx context.Context, q Query) (resp Response, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("recommend", start, err, "results", len(resp.Results), "reranked", resp.Reranked)
		if err == nil {
			c.obs.observeResults(len(resp.Results))
		}
	}()

	req := recommenduc.Request{
		Query:        q.Text,
		TopK:         q.TopK,
		Rerank:       q.Rerank,
		GenderFilter: q.Gender,
	}
	if len(q.Image) > 0 {
		req.ImageBase64 = base64.StdEncoding.EncodeToString(q.Image)
	}

	out, err := c.recommendSvc.Recommend(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("recommend: %w", err)
	}

	results := make([]Result, len(out.Results))
	for i, r := range out.Results {
		results[i] = resultFromDomain(r)
	}
	return Response{Query: out.Query, Results: results, Reranked: out.Reranked}, nil
}
