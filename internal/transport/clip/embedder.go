// Package clip embeds images into the catalog vector space through an HTTP
// endpoint that answers in the OpenAI embeddings response shape.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/metrics"
)

const provider = "clip"

type imageRequest struct {
	Model string `json:"model,omitempty"`
	Image string `json:"image"` // base64, standard encoding
}

type imageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embedder implements domain.ImageEmbedder.
type Embedder struct {
	url    string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewEmbedder creates an image embedder posting to url.
func NewEmbedder(url, model string, timeout time.Duration, logger *zap.Logger) *Embedder {
	return &Embedder{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// EmbedImage sends the raw image bytes and returns the embedding.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	if len(image) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("empty image: %w", domain.ErrInvalidRequest)
	}

	payload, err := json.Marshal(imageRequest{Model: e.model, Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.fail("api_error")
		return domain.EmbeddingResult{}, fmt.Errorf("image embedding request: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.fail("api_error")
		return domain.EmbeddingResult{}, fmt.Errorf("image embedding API error %d: %s: %w",
			resp.StatusCode, string(body), domain.ErrEmbeddingProviderError)
	}

	var ir imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		e.fail("decode_error")
		return domain.EmbeddingResult{}, fmt.Errorf("decode image embedding: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(ir.Data) == 0 || len(ir.Data[0].Embedding) == 0 {
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty image embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	duration := time.Since(start)
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())
	metrics.EmbeddingBatchSize.WithLabelValues(provider, "image").Observe(1)

	e.logger.Debug("Image embedding completed",
		zap.Int("bytes", len(image)),
		zap.Int("dimensions", len(ir.Data[0].Embedding)),
		zap.Duration("duration", duration),
	)

	return domain.EmbeddingResult{
		Embedding:    ir.Data[0].Embedding,
		PromptTokens: ir.Usage.PromptTokens,
		TotalTokens:  ir.Usage.TotalTokens,
	}, nil
}

func (e *Embedder) fail(errorType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, errorType).Inc()
}
