package rerank

import (
	"context"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// fakeScorer returns fixed scores and records every call.
type fakeScorer struct {
	scores []float64
	err    error

	calls   int
	queries []string
	docs    [][]string
}

func (f *fakeScorer) Score(_ context.Context, query string, docs []string) ([]float64, error) {
	f.calls++
	f.queries = append(f.queries, query)
	f.docs = append(f.docs, docs)
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func ptr(f float64) *float64 { return &f }

func item(slot int, title string, price, rating *float64) domain.CatalogItem {
	return domain.CatalogItem{Slot: slot, Title: title, Price: price, Rating: rating}
}

func cands(items ...domain.CatalogItem) []domain.Candidate {
	out := make([]domain.Candidate, len(items))
	for i, it := range items {
		out[i] = domain.Candidate{Item: it, Score: 1 - float64(i)/10}
	}
	return out
}
