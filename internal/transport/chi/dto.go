package chi

import (
	"github.com/kailas-cloud/vecvogue/internal/domain"
	healthuc "github.com/kailas-cloud/vecvogue/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeEmbeddingFailed  = "embedding_provider_error"
	codeImageUnsupported = "image_unsupported"
	codeInternalError    = "internal_error"
)

// RecommendRequest is the POST /api/recommend body.
type RecommendRequest struct {
	Query        string  `json:"q"`
	ImageBase64  string  `json:"image_base64,omitempty"`
	TopK         *int    `json:"top_k,omitempty"`
	Rerank       bool    `json:"rerank"`
	GenderFilter *string `json:"gender_filter,omitempty"`
}

// RecommendParams are the GET /api/recommend query parameters.
type RecommendParams struct {
	Q            *string
	TopK         *int
	Rerank       *bool
	GenderFilter *string
}

// RecommendResponse is the body returned by both recommend endpoints.
type RecommendResponse struct {
	Query    string       `json:"query"`
	Results  []ResultItem `json:"results"`
	Reranked bool         `json:"reranked"`
}

// ResultItem is one recommended product.
type ResultItem struct {
	Idx         int      `json:"idx"`
	ParentASIN  string   `json:"parent_asin,omitempty"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Rating      *float64 `json:"rating"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Rank        *int     `json:"rank,omitempty"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func resultToItem(r domain.RankedResult, reranked bool) ResultItem {
	item := ResultItem{
		Idx:        r.Item.Slot,
		ParentASIN: r.Item.ParentASIN,
		Title:      r.Item.Title,
		Price:      r.Item.Price,
		Rating:     r.Item.Rating,
		Score:      r.Score,
	}
	if reranked {
		score := r.RelevanceScore
		rank := r.Rank
		item.RerankScore = &score
		item.Rank = &rank
		item.Explanation = r.Explanation
	}
	return item
}

func healthToResponse(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(report.Status), Checks: checks}
}
