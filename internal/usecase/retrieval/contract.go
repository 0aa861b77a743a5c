package retrieval

import (
	"context"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// Index returns nearest catalog candidates for a query vector.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error)
}
