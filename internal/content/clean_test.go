// internal/content/clean_test.go
//
// Unit-tests for neighborhood-prefix stripping and slug generation.
//
// Run: go test ./internal/content -v

package content

import "testing"

func TestStripNeighborhoodPrefix(t *testing.T) {
	cases := []struct {
		text, name, want string
	}{
		{"Carroll Gardens: Pool reopens", "Carroll Gardens", "Pool reopens"},
		{"Carroll Gardens — Pool reopens", "Carroll Gardens", "Pool reopens"},
		{"Carroll Gardens - Pool reopens", "Carroll Gardens", "Pool reopens"},
		{"carroll gardens: pool reopens", "Carroll Gardens", "pool reopens"},
		{"Carroll Gardens, Pool reopens", "Carroll Gardens", "Pool reopens"},
		// Name appears but not as a separated prefix: untouched.
		{"Carroll Gardenside news", "Carroll Gardens", "Carroll Gardenside news"},
		{"Pool reopens in Carroll Gardens", "Carroll Gardens", "Pool reopens in Carroll Gardens"},
		{"", "Carroll Gardens", ""},
		{"Pool reopens", "", "Pool reopens"},
	}
	for _, c := range cases {
		if got := StripNeighborhoodPrefix(c.text, c.name); got != c.want {
			t.Errorf("StripNeighborhoodPrefix(%q, %q) = %q, want %q", c.text, c.name, got, c.want)
		}
	}
}

func TestCleanStory(t *testing.T) {
	cat := "Greenpoint: Parks"
	s := &Story{Headline: "Greenpoint: Pool reopens", Category: &cat}
	CleanStory(s, "Greenpoint")
	if s.Headline != "Pool reopens" {
		t.Fatalf("headline = %q", s.Headline)
	}
	if *s.Category != "Parks" {
		t.Fatalf("category = %q", *s.Category)
	}
}

func TestMakeSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello-world"},
		{"  multiple   spaces  ", "multiple-spaces"},
		{"Café au lait", "caf-au-lait"},
		{"***", "item"},
		{"already-kebab", "already-kebab"},
		{"Numbers 123 stay", "numbers-123-stay"},
	}
	for _, c := range cases {
		if got := MakeSlug(c.in); got != c.want {
			t.Errorf("MakeSlug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
