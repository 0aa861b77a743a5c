// Package keyword implements case-insensitive term matching for the
// table-driven query and title classifiers.
package keyword

import (
	"strings"
	"unicode"
)

// Mode selects how a term is matched against text.
type Mode int

const (
	// Substring matches a term anywhere in the lowercased text.
	Substring Mode = iota
	// Word matches a term only against whole tokens. Apostrophes are part of a
	// token, so "men's" and "men" are distinct tokens.
	Word
)

// Set is a list of lowercase terms matched with one Mode.
type Set struct {
	Terms []string
	Mode  Mode
}

// NewSet builds a set, lowercasing the terms.
func NewSet(mode Mode, terms ...string) Set {
	lower := make([]string, len(terms))
	for i, t := range terms {
		lower[i] = strings.ToLower(t)
	}
	return Set{Terms: lower, Mode: mode}
}

// Text is a lowercased, tokenized view of an input string.
// Build it once and match it against many sets.
type Text struct {
	lower  string
	tokens map[string]struct{}
}

// NewText prepares s for matching.
func NewText(s string) Text {
	lower := strings.ToLower(strings.ReplaceAll(s, "’", "'"))
	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(lower, isSeparator) {
		tok = strings.Trim(tok, "'")
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}
	return Text{lower: lower, tokens: tokens}
}

// Count returns how many distinct terms of the set occur in t.
func (s Set) Count(t Text) int {
	n := 0
	for _, term := range s.Terms {
		if s.match(t, term) {
			n++
		}
	}
	return n
}

// Any reports whether at least one term occurs in t.
func (s Set) Any(t Text) bool {
	for _, term := range s.Terms {
		if s.match(t, term) {
			return true
		}
	}
	return false
}

func (s Set) match(t Text, term string) bool {
	if s.Mode == Word {
		_, ok := t.tokens[term]
		return ok
	}
	return strings.Contains(t.lower, term)
}

func isSeparator(r rune) bool {
	return r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
