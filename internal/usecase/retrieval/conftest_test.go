package retrieval

import (
	"context"
	"sort"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// fakeIndex returns its fixed candidates ranked by score, ignoring the vector.
type fakeIndex struct {
	items []domain.Candidate
	err   error
	lastK int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]domain.Candidate, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Candidate, len(f.items))
	for i, c := range f.items {
		out[i] = domain.Candidate{Item: c.Item.Clone(), Score: c.Score}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type fakeImageEmbedder struct {
	err error
}

func (f *fakeImageEmbedder) EmbedImage(_ context.Context, _ []byte) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

func cand(slot int, title string, score float64) domain.Candidate {
	return domain.Candidate{Item: domain.CatalogItem{Slot: slot, Title: title}, Score: score}
}

func titles(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Item.Title
	}
	return out
}
