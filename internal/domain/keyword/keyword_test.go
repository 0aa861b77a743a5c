package keyword

import "testing"

func TestSet_WordMode(t *testing.T) {
	men := NewSet(Word, "men", "men's", "man")

	tests := []struct {
		text string
		want int
	}{
		{"Men's Running Shoes", 1},
		{"shoes for men and MEN'S socks", 2},
		{"Women's Dress", 0},
		{"womanly", 0},
		{"a man’s watch", 0},
		{"man-made fibre", 1},
		{"", 0},
	}
	for _, tc := range tests {
		if got := men.Count(NewText(tc.text)); got != tc.want {
			t.Errorf("Count(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestSet_CurlyApostropheIsNormalized(t *testing.T) {
	s := NewSet(Word, "men's")
	if !s.Any(NewText("Men’s jacket")) {
		t.Fatal("expected curly apostrophe to match")
	}
}

func TestSet_SubstringMode(t *testing.T) {
	s := NewSet(Substring, "swim", "POOL")
	if !s.Any(NewText("Swimwear for the beach")) {
		t.Error("expected substring match for swim")
	}
	if !s.Any(NewText("poolside")) {
		t.Error("expected uppercased term to be lowercased")
	}
	if s.Any(NewText("hiking boots")) {
		t.Error("unexpected match")
	}
}
