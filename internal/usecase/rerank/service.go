// Package rerank reorders retrieval candidates with a pairwise relevance
// model, explains each placement and applies the catalog business rules.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
	"github.com/kailas-cloud/vecvogue/internal/domain/intent"
	"github.com/kailas-cloud/vecvogue/internal/logger"
)

const ratingBoost = 1.1

// Service reranks candidates.
type Service struct {
	scorer Scorer
}

// New creates a rerank service.
func New(scorer Scorer) *Service {
	return &Service{scorer: scorer}
}

// RerankAndExplain scores every candidate in one batch, sorts by relevance,
// applies business rules and keeps at most maxResults.
// Scorer failures are returned wrapped in domain.ErrRerankFailed.
func (s *Service) RerankAndExplain(
	ctx context.Context, query string, candidates []domain.Candidate, maxResults int,
) ([]domain.RankedResult, error) {
	in := intent.Analyze(query)

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = Representation(c.Item)
	}

	scores, err := s.scorer.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w: %w", domain.ErrRerankFailed, err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("got %d scores for %d candidates: %w",
			len(scores), len(candidates), domain.ErrRerankFailed)
	}

	ranked := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		c.Item = c.Item.Clone()
		ranked[i] = domain.RankedResult{
			Candidate:      c,
			RelevanceScore: scores[i],
			Explanation:    Explain(c.Item, scores[i], in),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	ranked = ApplyBusinessRules(ranked, in)

	if maxResults >= 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	logger.FromContext(ctx).Debug("Candidates reranked",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(ranked)),
		zap.String("gender", string(in.Gender)),
		zap.String("occasion", string(in.Occasion)),
	)
	return ranked, nil
}

// RerankWithGender reranks for an explicit audience by extending the query
// with "<gender>'s clothing". A None gender reranks the query as is.
func (s *Service) RerankWithGender(
	ctx context.Context, query string, candidates []domain.Candidate, g gender.Gender, maxResults int,
) ([]domain.RankedResult, error) {
	if g != gender.None {
		query = fmt.Sprintf("%s %s's clothing", query, g)
	}
	return s.RerankAndExplain(ctx, query, candidates, maxResults)
}

// ApplyBusinessRules drops titles marked for the opposite gender of the
// intent and boosts highly rated items for rating-sensitive queries.
// Order is kept; the boost does not re-sort and dropped items are not replaced.
func ApplyBusinessRules(results []domain.RankedResult, in intent.Intent) []domain.RankedResult {
	out := results[:0]
	for _, r := range results {
		if in.GenderSpecific && gender.NewTitle(r.Item.Title).HasMarker(in.Gender.Opposite()) {
			continue
		}
		if in.RatingSensitive && r.Item.Rating != nil && *r.Item.Rating >= highlyRated {
			r.RelevanceScore *= ratingBoost
		}
		out = append(out, r)
	}
	return out
}
