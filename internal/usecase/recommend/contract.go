package recommend

import (
	"context"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
)

// Retriever produces first-pass candidates.
type Retriever interface {
	Search(ctx context.Context, queryText string, topK int, filter gender.Gender) ([]domain.Candidate, error)
	SearchImage(ctx context.Context, image []byte, hintText string, topK int, filter gender.Gender) ([]domain.Candidate, error)
}

// Reranker reorders candidates with a relevance model.
type Reranker interface {
	RerankWithGender(
		ctx context.Context, query string, candidates []domain.Candidate, g gender.Gender, maxResults int,
	) ([]domain.RankedResult, error)
}
