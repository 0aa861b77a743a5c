package domain

// CatalogItem is one product record of the metadata table.
// Slot is the join key against the vector index and never changes within a build.
type CatalogItem struct {
	Slot       int            `json:"idx"`
	ParentASIN string         `json:"parent_asin,omitempty"`
	Title      string         `json:"title"`
	Price      *float64       `json:"price"`
	Rating     *float64       `json:"rating"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Clone returns a deep copy so filters never touch the shared metadata table.
func (c CatalogItem) Clone() CatalogItem {
	out := c
	if c.Price != nil {
		p := *c.Price
		out.Price = &p
	}
	if c.Rating != nil {
		r := *c.Rating
		out.Rating = &r
	}
	if c.Raw != nil {
		out.Raw = cloneMap(c.Raw)
	}
	return out
}

// RawString returns raw[key] when it is a non-empty string.
func (c CatalogItem) RawString(key string) string {
	if s, ok := c.Raw[key].(string); ok {
		return s
	}
	return ""
}

// Candidate is a catalog item scored by first-pass vector similarity.
type Candidate struct {
	Item  CatalogItem
	Score float64
}

// RankedResult is a reranked candidate ready for display.
type RankedResult struct {
	Candidate
	RelevanceScore float64
	Explanation    string
	Rank           int
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
