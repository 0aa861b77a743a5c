// Package retrieval runs the first pass of a recommendation: embed the query,
// over-fetch neighbours from the catalog index, then apply the gender filter
// with backfill.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
	"github.com/kailas-cloud/vecvogue/internal/logger"
	"github.com/kailas-cloud/vecvogue/internal/metrics"
)

// DefaultOverfetchFactor is how many neighbours are fetched per requested result.
const DefaultOverfetchFactor = 3

// Service retrieves candidates for text and image queries.
type Service struct {
	index     Index
	embed     domain.Embedder
	image     domain.ImageEmbedder
	overfetch int
}

// Option configures a Service.
type Option func(*Service)

// WithImageEmbedder enables SearchImage.
func WithImageEmbedder(e domain.ImageEmbedder) Option {
	return func(s *Service) { s.image = e }
}

// WithOverfetchFactor overrides DefaultOverfetchFactor.
func WithOverfetchFactor(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.overfetch = n
		}
	}
}

// New creates a retrieval service.
func New(index Index, embed domain.Embedder, opts ...Option) *Service {
	s := &Service{index: index, embed: embed, overfetch: DefaultOverfetchFactor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds queryText and returns at most topK candidates by descending score.
// An empty filter lets the query text decide the gender.
func (s *Service) Search(
	ctx context.Context, queryText string, topK int, filter gender.Gender,
) ([]domain.Candidate, error) {
	defer observe("text", time.Now())

	if topK <= 0 {
		return []domain.Candidate{}, nil
	}

	emb, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}
	return s.searchVector(ctx, emb.Embedding, queryText, topK, filter)
}

// SearchImage embeds an image and retrieves like Search. hintText, when set,
// only takes part in gender resolution.
func (s *Service) SearchImage(
	ctx context.Context, image []byte, hintText string, topK int, filter gender.Gender,
) ([]domain.Candidate, error) {
	defer observe("image", time.Now())

	if s.image == nil {
		return nil, domain.ErrImageUnsupported
	}
	if topK <= 0 {
		return []domain.Candidate{}, nil
	}

	emb, err := s.image.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed image: %w", err)
	}
	return s.searchVector(ctx, emb.Embedding, hintText, topK, filter)
}

func (s *Service) searchVector(
	ctx context.Context, vec []float32, text string, topK int, filter gender.Gender,
) ([]domain.Candidate, error) {
	candidates, err := s.index.Search(ctx, vec, topK*s.overfetch)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	g := filter
	if g == gender.None {
		g = gender.Detect(text)
	}

	if g != gender.None {
		var backfilled bool
		candidates, backfilled = FilterByGender(candidates, g, topK)
		if backfilled {
			metrics.RetrievalBackfillTotal.WithLabelValues(string(g)).Inc()
		}
	}

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	logger.FromContext(ctx).Debug("Candidates retrieved",
		zap.String("gender", string(g)),
		zap.Int("top_k", topK),
		zap.Int("returned", len(candidates)),
	)
	return candidates, nil
}

// FilterByGender keeps titles that target g. When fewer than topK remain it
// appends the other candidates in their original ranked order until topK is
// reached or the pool runs out. backfilled reports whether that happened.
func FilterByGender(candidates []domain.Candidate, g gender.Gender, topK int) (out []domain.Candidate, backfilled bool) {
	primary := make([]domain.Candidate, 0, len(candidates))
	var rest []domain.Candidate

	for _, c := range candidates {
		if gender.NewTitle(c.Item.Title).Targets(g) {
			primary = append(primary, c)
		} else {
			rest = append(rest, c)
		}
	}

	if len(primary) >= topK {
		return primary, false
	}

	need := topK - len(primary)
	if need > len(rest) {
		need = len(rest)
	}
	return append(primary, rest[:need]...), true
}

func observe(queryType string, start time.Time) {
	metrics.RetrievalDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}
