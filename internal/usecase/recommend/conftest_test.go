package recommend

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
)

type searchCall struct {
	text  string
	image []byte
	topK  int
	g     gender.Gender
}

type mockRetriever struct {
	candidates []domain.Candidate
	err        error
	calls      []searchCall
}

func (m *mockRetriever) Search(_ context.Context, text string, topK int, g gender.Gender) ([]domain.Candidate, error) {
	m.calls = append(m.calls, searchCall{text: text, topK: topK, g: g})
	return m.candidates, m.err
}

func (m *mockRetriever) SearchImage(
	_ context.Context, image []byte, hint string, topK int, g gender.Gender,
) ([]domain.Candidate, error) {
	m.calls = append(m.calls, searchCall{text: hint, image: image, topK: topK, g: g})
	return m.candidates, m.err
}

type mockReranker struct {
	err      error
	delay    time.Duration
	query    string
	g        gender.Gender
	maxSeen  int
	deadline bool
}

func (m *mockReranker) RerankWithGender(
	ctx context.Context, query string, candidates []domain.Candidate, g gender.Gender, maxResults int,
) ([]domain.RankedResult, error) {
	m.query, m.g, m.maxSeen = query, g, maxResults
	_, m.deadline = ctx.Deadline()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	// Reverse order so tests can tell reranked output apart.
	out := make([]domain.RankedResult, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		out = append(out, domain.RankedResult{
			Candidate:      candidates[i],
			RelevanceScore: float64(len(candidates) - i),
			Explanation:    "because",
			Rank:           len(out) + 1,
		})
	}
	return out, nil
}

func candidates(titles ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(titles))
	for i, t := range titles {
		out[i] = domain.Candidate{
			Item:  domain.CatalogItem{Slot: i, Title: t},
			Score: 1 - float64(i)/10,
		}
	}
	return out
}
