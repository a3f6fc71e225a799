// internal/sender/subject.go
//
// Subject-line builder.
//
// Context
// -------
// Subjects are built as fixed prefix + primary neighborhood name + teaser,
// hard-capped at 70 bytes so no client truncates mid-thought.  Teaser
// preference: the editorial "information-gap" teaser when it fits, else the
// lead headline truncated at the last whole word, with " & more" appended
// only when room remains and the digest actually has more stories.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package sender

import (
	"strings"
	"unicode/utf8"
)

// Subject-line budget and furniture.
const (
	SubjectMax    = 70
	subjectPrefix = "Daily Brief: "
	subjectSep    = " — "
	subjectMore   = " & more"
)

// Subject renders the line for one digest.  neighborhoodName is the primary
// section's display name; teaser may be empty; leadHeadline may be empty for
// a storyless digest; moreStories reports whether stories beyond the lead
// exist.
func Subject(neighborhoodName, teaser, leadHeadline string, moreStories bool) string {
	base := subjectPrefix + neighborhoodName
	if len(base) >= SubjectMax {
		return truncateWords(base, SubjectMax)
	}

	budget := SubjectMax - len(base) - len(subjectSep)

	if teaser != "" && len(teaser) <= budget {
		return base + subjectSep + teaser
	}

	if leadHeadline != "" {
		head := leadHeadline
		if len(head) > budget {
			head = truncateWords(head, budget)
		}
		if head == "" {
			return base
		}
		s := base + subjectSep + head
		if moreStories && len(s)+len(subjectMore) <= SubjectMax {
			s += subjectMore
		}
		return s
	}

	return base
}

// truncateWords cuts s to at most max bytes, preferring the last whole word.
// Falls back to a hard cut, backed up to a rune boundary so a multibyte
// headline never yields invalid UTF-8, when s has no space inside the budget.
func truncateWords(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}
