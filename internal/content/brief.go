// internal/content/brief.go
//
// Brief-derived summary synthesis.
//
// Context
// -------
// When a neighborhood has no dedicated daily-summary article, the digest
// synthesizes one from the rolling neighborhood brief.  The slug is built
// deterministically from neighborhood + local date + a truncated headline,
// so repeated runs on the same day reuse the same article row instead of
// piling up duplicates.
//
// Notes
// -----
// • A *changed* brief headline the same day intentionally produces a new
//   row: the copy changed, so the article should too.
// • Oxford commas, two spaces after periods.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
)

// slugHeadlineBytes caps how much headline feeds the slug.  Enough to
// disambiguate real copy changes, short enough to keep slugs readable.
const slugHeadlineBytes = 40

// BriefSlug builds the deterministic slug for a synthesized summary.
func BriefSlug(neighborhoodSlug, date, headline string) string {
	h := headline
	if len(h) > slugHeadlineBytes {
		h = h[:slugHeadlineBytes]
	}
	return fmt.Sprintf("%s-%s-%s", neighborhoodSlug, date, MakeSlug(h))
}

// synthStore is the slice of the repository the synthesizer needs.
type synthStore interface {
	BySlug(ctx context.Context, slug string) (*Story, error)
	InsertSynthesized(ctx context.Context, neighborhoodID uint64, s *Story) error
}

// EnsureBriefStory returns the synthesized summary article for (nb, date,
// brief), creating it if this is the first run to need it.  The
// select-insert-select dance tolerates a lost race: whoever inserts first
// wins, everyone reads the same row back.
func EnsureBriefStory(ctx context.Context, store synthStore, nb *neighborhood.Record, b *Brief, date string, now time.Time) (*Story, error) {
	slug := BriefSlug(nb.Slug, date, b.Headline)

	if existing, err := store.BySlug(ctx, slug); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	category := SummaryCategory
	story := &Story{
		Slug:        slug,
		Headline:    b.Headline,
		Preview:     b.Body,
		Category:    &category,
		URL:         "/neighborhoods/" + nb.Slug + "/" + slug,
		Location:    nb.Name,
		PublishedAt: now,
	}
	if err := store.InsertSynthesized(ctx, nb.ID, story); err != nil {
		return nil, err
	}

	inserted, err := store.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if inserted != nil {
		return inserted, nil
	}
	// Insert raced a delete, or the row is invisible to us; fall back to the
	// in-memory story so the digest still ships.
	return story, nil
}
