// Package gender detects gender intent in queries and gender markers in product titles.
package gender

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecvogue/internal/domain/keyword"
)

// Gender is the audience a query or product targets. None means no preference.
type Gender string

const (
	None  Gender = ""
	Men   Gender = "men"
	Women Gender = "women"
)

// Query-side keyword sets. Whole-word matching keeps "men" from matching
// inside "women" and "male" inside "female", so compounds are listed explicitly.
var keywords = map[Gender]keyword.Set{
	Men: keyword.NewSet(keyword.Word,
		"men", "men's", "mens", "male", "boy", "boys", "guy", "guys", "man", "menswear"),
	Women: keyword.NewSet(keyword.Word,
		"women", "women's", "womens", "female", "girl", "girls", "lady", "ladies", "woman", "womenswear"),
}

// Title markers used by explanations and the rerank hard exclusion.
var markers = map[Gender]keyword.Set{
	Men:   keyword.NewSet(keyword.Word, "men", "men's", "male", "menswear"),
	Women: keyword.NewSet(keyword.Word, "women", "women's", "female", "womenswear"),
}

// Parse validates an explicit gender filter. Empty and "none" mean no filter.
func Parse(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "men":
		return Men, nil
	case "women":
		return Women, nil
	default:
		return None, fmt.Errorf("unknown gender %q (want men or women)", s)
	}
}

// Opposite returns the other gender, or None for None.
func (g Gender) Opposite() Gender {
	switch g {
	case Men:
		return Women
	case Women:
		return Men
	default:
		return None
	}
}

// Detect resolves gender intent by counting keywords of each set.
// The strictly larger count wins; a tie, including zero to zero, is None.
func Detect(query string) Gender {
	return detect(keyword.NewText(query))
}

func detect(t keyword.Text) Gender {
	men := keywords[Men].Count(t)
	women := keywords[Women].Count(t)
	switch {
	case men > women:
		return Men
	case women > men:
		return Women
	default:
		return None
	}
}

// Title is a product title prepared for repeated gender checks.
type Title struct {
	text keyword.Text
}

// NewTitle prepares a title for matching.
func NewTitle(title string) Title {
	return Title{text: keyword.NewText(title)}
}

// Mentions reports whether the title carries any keyword of g.
func (t Title) Mentions(g Gender) bool {
	set, ok := keywords[g]
	return ok && set.Any(t.text)
}

// Targets reports whether the title mentions g and not its opposite.
func (t Title) Targets(g Gender) bool {
	return t.Mentions(g) && !t.Mentions(g.Opposite())
}

// HasMarker reports whether the title carries one of the short markers of g
// (men, men's, male / women, women's, female).
func (t Title) HasMarker(g Gender) bool {
	set, ok := markers[g]
	return ok && set.Any(t.text)
}
