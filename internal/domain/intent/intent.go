// Package intent turns a free-text query into a structured intent descriptor.
// Every signal is a keyword rule from a fixed table; adding a category or a
// term is a data change.
package intent

import (
	"github.com/kailas-cloud/vecvogue/internal/domain/gender"
	"github.com/kailas-cloud/vecvogue/internal/domain/keyword"
)

// Occasion is the event a query shops for.
type Occasion string

// Occasions in priority order.
const (
	OccasionNone    Occasion = ""
	OccasionBeach   Occasion = "beach"
	OccasionWedding Occasion = "wedding"
	OccasionOffice  Occasion = "office"
	OccasionSports  Occasion = "sports"
	OccasionCasual  Occasion = "casual"
)

// Season is the weather a query shops for.
type Season string

// Seasons in priority order.
const (
	SeasonNone   Season = ""
	SeasonSummer Season = "summer"
	SeasonWinter Season = "winter"
	SeasonRainy  Season = "rainy"
)

// Intent is the structured reading of a query.
type Intent struct {
	GenderSpecific  bool
	Gender          gender.Gender
	OccasionBased   bool
	Occasion        Occasion
	Seasonal        bool
	Season          Season
	PriceSensitive  bool
	RatingSensitive bool
}

type rule[T any] struct {
	category T
	terms    keyword.Set
}

// occasionRules is evaluated in order; the first match wins.
var occasionRules = []rule[Occasion]{
	{OccasionBeach, keyword.NewSet(keyword.Substring, "beach", "swim", "pool", "vacation", "resort")},
	{OccasionWedding, keyword.NewSet(keyword.Substring, "wedding", "bridal", "formal", "ceremony")},
	{OccasionOffice, keyword.NewSet(keyword.Substring, "office", "work", "professional", "business", "job")},
	{OccasionSports, keyword.NewSet(keyword.Substring, "sports", "gym", "workout", "running", "exercise")},
	{OccasionCasual, keyword.NewSet(keyword.Substring, "casual", "everyday", "comfort", "relaxed")},
}

var seasonRules = []rule[Season]{
	{SeasonSummer, keyword.NewSet(keyword.Substring, "summer", "hot", "warm", "sunny")},
	{SeasonWinter, keyword.NewSet(keyword.Substring, "winter", "cold", "snow", "freezing")},
	{SeasonRainy, keyword.NewSet(keyword.Substring, "rain", "rainy", "waterproof", "umbrella")},
}

// occasionTitleTerms are the title words that confirm an occasion match in explanations.
// Casual has none on purpose: almost any title reads as casual.
var occasionTitleTerms = map[Occasion]keyword.Set{
	OccasionBeach:   keyword.NewSet(keyword.Substring, "beach", "swim", "summer", "vacation"),
	OccasionWedding: keyword.NewSet(keyword.Substring, "wedding", "formal", "elegant", "dress"),
	OccasionOffice:  keyword.NewSet(keyword.Substring, "office", "professional", "business", "work"),
	OccasionSports:  keyword.NewSet(keyword.Substring, "sports", "athletic", "gym", "running"),
}

var (
	priceTerms  = keyword.NewSet(keyword.Substring, "cheap", "expensive", "budget", "affordable", "luxury", "premium")
	ratingTerms = keyword.NewSet(keyword.Substring, "rated", "rating", "stars", "review", "popular")
)

// Analyze derives the intent of query. It is pure and deterministic.
func Analyze(query string) Intent {
	t := keyword.NewText(query)

	var in Intent
	if g := gender.Detect(query); g != gender.None {
		in.GenderSpecific = true
		in.Gender = g
	}
	if o, ok := firstMatch(occasionRules, t); ok {
		in.OccasionBased = true
		in.Occasion = o
	}
	if s, ok := firstMatch(seasonRules, t); ok {
		in.Seasonal = true
		in.Season = s
	}
	in.PriceSensitive = priceTerms.Any(t)
	in.RatingSensitive = ratingTerms.Any(t)
	return in
}

// TitleMatchesOccasion reports whether a product title carries a word of the occasion.
func TitleMatchesOccasion(title string, o Occasion) bool {
	set, ok := occasionTitleTerms[o]
	return ok && set.Any(keyword.NewText(title))
}

func firstMatch[T any](rules []rule[T], t keyword.Text) (T, bool) {
	for _, r := range rules {
		if r.terms.Any(t) {
			return r.category, true
		}
	}
	var zero T
	return zero, false
}
