package content

import "strings"

// prefix separators tried after a neighborhood name, longest first.
var prefixSeparators = []string{" — ", " – ", " - ", ": ", ", "}

// StripNeighborhoodPrefix removes a redundant leading neighborhood name from
// headlines or category labels ("Carroll Gardens: Pool reopens" → "Pool
// reopens").  The digest already names the neighborhood in its section
// header, so the repetition only wastes subject-line budget.
func StripNeighborhoodPrefix(text, neighborhoodName string) string {
	if text == "" || neighborhoodName == "" {
		return text
	}
	lower := strings.ToLower(text)
	name := strings.ToLower(neighborhoodName)
	if !strings.HasPrefix(lower, name) {
		return text
	}
	rest := text[len(name):]
	for _, sep := range prefixSeparators {
		if strings.HasPrefix(rest, sep) {
			return strings.TrimSpace(rest[len(sep):])
		}
	}
	return text
}

// CleanStory strips the neighborhood prefix from both headline and category.
func CleanStory(s *Story, neighborhoodName string) {
	s.Headline = StripNeighborhoodPrefix(s.Headline, neighborhoodName)
	if s.Category != nil {
		c := StripNeighborhoodPrefix(*s.Category, neighborhoodName)
		s.Category = &c
	}
}
