// Package crossencoder scores (query, document) pairs against a remote
// cross-encoder served behind a /v1/rerank endpoint.
package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/metrics"
)

// RerankRequest is the request payload for the rerank endpoint.
type RerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

// RerankResponseResult is a single result in the rerank response.
type RerankResponseResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankResponse is the response from the rerank endpoint.
type RerankResponse struct {
	Results []RerankResponseResult `json:"results"`
	Model   string                 `json:"model"`
}

// Client implements rerank.Scorer over HTTP.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a cross-encoder client. A nil httpClient gets one with the given timeout.
func NewClient(baseURL, model string, timeout time.Duration, logger *zap.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  httpClient,
		logger:  logger,
	}
}

// Score returns one relevance score per document, aligned with docs.
// The service may return results in any order; every input index must be scored exactly once.
func (c *Client) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}

	start := time.Now()
	defer func() { metrics.RerankDuration.Observe(time.Since(start).Seconds()) }()

	payload, err := json.Marshal(RerankRequest{Query: query, Candidates: docs, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call rerank endpoint: %v: %w", err, domain.ErrRerankFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank endpoint returned %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(body)), domain.ErrRerankFailed)
	}

	var rr RerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankFailed)
	}

	scores, err := alignScores(rr.Results, len(docs))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Rerank scored",
		zap.Int("candidates", len(docs)),
		zap.String("model", rr.Model),
		zap.Duration("elapsed", time.Since(start)),
	)
	return scores, nil
}

func alignScores(results []RerankResponseResult, n int) ([]float64, error) {
	if len(results) != n {
		return nil, fmt.Errorf("got %d scores for %d candidates: %w", len(results), n, domain.ErrRerankFailed)
	}
	scores := make([]float64, n)
	seen := make([]bool, n)
	for _, r := range results {
		if r.Index < 0 || r.Index >= n || seen[r.Index] {
			return nil, fmt.Errorf("invalid result index %d for %d candidates: %w", r.Index, n, domain.ErrRerankFailed)
		}
		seen[r.Index] = true
		scores[r.Index] = r.Score
	}
	return scores, nil
}
