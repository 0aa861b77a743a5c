package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecvogue/internal/domain"
)

// Record is one raw product as decoded from the dump.
type Record = map[string]any

// docTextFields are concatenated, in order, into the embedded document text.
var docTextFields = []string{"title", "features", "categories", "description", "product_description"}

const docSep = " . "

// DocText renders the text embedded for a product:
// title . features . categories . description . product_description . price: P . rating: R.
// Empty fields are skipped; list fields are joined with the same separator.
func DocText(r Record) string {
	var parts []string
	for _, k := range docTextFields {
		if s := textValue(r[k]); s != "" {
			parts = append(parts, s)
		}
	}
	if p := number(r["price"]); p != nil && *p != 0 {
		parts = append(parts, "price: "+formatNumber(*p))
	}
	if rt := number(r["average_rating"]); rt != nil && *rt != 0 {
		parts = append(parts, "rating: "+formatNumber(*rt))
	}
	return strings.Join(parts, docSep)
}

// ToItem builds the metadata record for a product. Slot is assigned at save time.
func ToItem(r Record) domain.CatalogItem {
	return domain.CatalogItem{
		ParentASIN: stringValue(r["parent_asin"]),
		Title:      stringValue(r["title"]),
		Price:      number(r["price"]),
		Rating:     number(r["average_rating"]),
		Raw:        r,
	}
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		var items []string
		for _, e := range t {
			if s := textValue(e); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, docSep)
	case string:
		return strings.TrimSpace(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return formatNumber(t)
	default:
		return fmt.Sprint(t)
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	default:
		return ""
	}
}

// number accepts JSON numbers and numeric strings ("$19.99" included).
func number(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int64:
		f := float64(t)
		return &f
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(t), "$")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
