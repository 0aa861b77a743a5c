package rerank

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecvogue/internal/domain"
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
	"github.com/kailas-cloud/vecvogue/internal/domain/intent"
)

const (
	budgetPrice    = 25.0
	premiumPrice   = 100.0
	highlyRated    = 4.0
	highlyRelevant = 0.8
	relevant       = 0.6
)

// Explain renders why item was ranked where it was, for a relevance score.
func Explain(item domain.CatalogItem, score float64, in intent.Intent) string {
	bucket := "somewhat relevant"
	switch {
	case score > highlyRelevant:
		bucket = "highly relevant"
	case score > relevant:
		bucket = "relevant"
	}
	base := "This product is " + bucket + " to your search"

	var reasons []string
	if in.GenderSpecific && gender.NewTitle(item.Title).HasMarker(in.Gender) {
		reasons = append(reasons, fmt.Sprintf("matches the %s's clothing you're looking for", in.Gender))
	}
	if in.OccasionBased && intent.TitleMatchesOccasion(item.Title, in.Occasion) {
		reasons = append(reasons, fmt.Sprintf("perfect for %s occasions", in.Occasion))
	}
	if p := item.Price; p != nil && *p != 0 {
		switch {
		case *p < budgetPrice:
			reasons = append(reasons, "budget-friendly price")
		case *p > premiumPrice:
			reasons = append(reasons, "premium quality item")
		}
	}
	if r := item.Rating; r != nil && *r >= highlyRated {
		reasons = append(reasons, "highly rated by customers")
	}

	if len(reasons) > 0 {
		base += " because it " + strings.Join(reasons, ", ")
	}
	return fmt.Sprintf("%s (score: %.3f)", base, score)
}
