package vecvogue

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/repository/catalog"
	recommenduc "github.com/kailas-cloud/vecvogue/internal/usecase/recommend"
)

// --- Embedder mock ---

type mockEmbedder struct {
	fn        func(ctx context.Context, text string) (EmbeddingResult, error)
	healthErr error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

func (m *mockEmbedder) HealthCheck(context.Context) error { return m.healthErr }

func constEmbedder(v ...float32) *mockEmbedder {
	return &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}}
}

// --- Scorer mock ---

type keywordScorer struct {
	keyword string
	err     error
	query   string
}

func (s *keywordScorer) Score(_ context.Context, query string, docs []string) ([]float64, error) {
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = 0.3
		if strings.Contains(d, s.keyword) {
			out[i] = 0.9
		}
	}
	return out, nil
}

// --- recommendUseCase mock ---

type mockRecommendUC struct {
	fn  func(ctx context.Context, req recommenduc.Request) (recommenduc.Response, error)
	got recommenduc.Request
}

func (m *mockRecommendUC) Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Response, error) {
	m.got = req
	return m.fn(ctx, req)
}

// --- helpers ---

func f64(v float64) *float64 { return &v }

// writeCatalog saves a three-item catalog and returns the artifact paths.
func writeCatalog(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "catalog.index")
	metaPath := filepath.Join(dir, "meta.json")

	items := []domain.CatalogItem{
		{ParentASIN: "M1", Title: "Men's Running Shoes", Price: f64(60)},
		{ParentASIN: "W1", Title: "Women's Running Shoes", Price: f64(55), Rating: f64(4.5)},
		{ParentASIN: "N1", Title: "Running Shoes", Price: f64(40)},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}
	if _, err := catalog.Save(indexPath, metaPath, 2, vectors, items); err != nil {
		t.Fatalf("save catalog: %v", err)
	}
	return indexPath, metaPath
}
