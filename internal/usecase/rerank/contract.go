package rerank

import "context"

// Scorer is a pairwise relevance model: one score per document, aligned with docs.
type Scorer interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}
