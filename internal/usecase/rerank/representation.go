package rerank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

const (
	maxFeatures     = 5
	maxCategories   = 3
	maxDescriptions = 2
)

// Representation renders the text a candidate is scored on: title, features,
// categories, description, then price and rating clauses.
func Representation(item domain.CatalogItem) string {
	title := item.Title
	if title == "" {
		title = item.RawString("title")
	}

	description := rawStrings(item.Raw["description"], maxDescriptions)
	if description == "" {
		description = rawStrings(item.Raw["product_description"], maxDescriptions)
	}

	parts := []string{
		title,
		rawList(item.Raw["features"], maxFeatures),
		rawList(item.Raw["categories"], maxCategories),
		description,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	text := strings.Join(nonEmpty, ". ")

	if p := item.Price; p != nil && *p != 0 {
		text += " priced at $" + formatNumber(*p)
	}
	if r, ok := rating(item); ok {
		text += " rated " + formatNumber(r) + " stars"
	}

	return strings.Join(strings.Fields(text), " ")
}

// rating returns the item rating, falling back to raw.average_rating.
func rating(item domain.CatalogItem) (float64, bool) {
	if item.Rating != nil && *item.Rating != 0 {
		return *item.Rating, true
	}
	if r, ok := item.Raw["average_rating"].(float64); ok && r != 0 {
		return r, true
	}
	return 0, false
}

// rawList joins up to limit elements of a JSON list; anything else yields "".
func rawList(v any, limit int) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, fmt.Sprint(e))
	}
	return strings.Join(out, " ")
}

// rawStrings accepts a string or a list of strings.
func rawStrings(v any, limit int) string {
	if s, ok := v.(string); ok {
		return s
	}
	return rawList(v, limit)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
