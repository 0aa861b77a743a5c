package vecvogue

import (
	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// Query is a recommendation request. Text, Image or both must be set.
type Query struct {
	Text   string
	Image  []byte // encoded image bytes (PNG, JPEG, ...)
	TopK   int    // 0 = client default
	Rerank bool
	Gender string // "men", "women" or empty to infer from Text
}

// Response is the ordered recommendation list.
type Response struct {
	Query    string
	Results  []Result
	Reranked bool // false when not requested or when the reranker failed
}

// Result is one recommended product.
type Result struct {
	Slot           int
	ParentASIN     string
	Title          string
	Price          *float64
	Rating         *float64
	Score          float64 // first-pass similarity
	RelevanceScore float64 // set when Reranked
	Explanation    string  // set when Reranked
	Rank           int     // 1-based, set when Reranked
	Raw            map[string]any
}

func resultFromDomain(r domain.RankedResult) Result {
	return Result{
		Slot:           r.Item.Slot,
		ParentASIN:     r.Item.ParentASIN,
		Title:          r.Item.Title,
		Price:          r.Item.Price,
		Rating:         r.Item.Rating,
		Score:          r.Score,
		RelevanceScore: r.RelevanceScore,
		Explanation:    r.Explanation,
		Rank:           r.Rank,
		Raw:            r.Item.Raw,
	}
}
