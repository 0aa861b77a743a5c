package vecvogue

import (
	"context"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// Embedder converts query text to a vector in the catalog's embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder converts an encoded image to a vector in the same space.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image []byte) (EmbeddingResult, error)
}

// Scorer returns one relevance score per document for a query,
// aligned with docs. Higher is more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// HealthChecker is optionally implemented by an Embedder to take part in Health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter bridges the public Embedder to domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return toDomainResult(res), nil
}

// imageEmbedderAdapter bridges the public ImageEmbedder to domain.ImageEmbedder.
type imageEmbedderAdapter struct {
	inner ImageEmbedder
}

func (a *imageEmbedderAdapter) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	res, err := a.inner.EmbedImage(ctx, image)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return toDomainResult(res), nil
}

func toDomainResult(r EmbeddingResult) domain.EmbeddingResult {
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}
}
