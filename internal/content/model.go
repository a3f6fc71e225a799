// internal/content/model.go
//
// Digest content models.
//
// Context
// -------
// A Story is a read-only projection of a published article.  The digest
// never writes articles, with one exception: when a neighborhood has no
// daily-summary article, one is synthesized from the rolling neighborhood
// brief under a deterministic slug (briefs.go).
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package content

import (
	"time"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ads"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/weather"
)

// SummaryCategory labels the digest's own daily-summary articles.  Stories
// in this category are exempt from paused-topic filtering and sort first.
const SummaryCategory = "daily_summary"

// Story is one article projection.
type Story struct {
	ID          uint64    `db:"id"`
	Slug        string    `db:"slug"`
	Headline    string    `db:"headline"`
	Preview     string    `db:"preview"`
	ImageURL    *string   `db:"image_url"`
	Category    *string   `db:"category"`
	URL         string    `db:"url"`
	Location    string    `db:"location"`
	Teaser      *string   `db:"teaser"`
	PublishedAt time.Time `db:"published_at"`
}

// IsSummary reports whether the story is a daily-summary article.
func (s *Story) IsSummary() bool {
	return s.Category != nil && *s.Category == SummaryCategory
}

// CategoryLabel returns the category or "".
func (s *Story) CategoryLabel() string {
	if s.Category == nil {
		return ""
	}
	return *s.Category
}

// Brief mirrors one row of the rolling `neighborhood_brief` table, the
// fallback source for synthesized summaries.
type Brief struct {
	NeighborhoodID uint64    `db:"neighborhood_id"`
	Headline       string    `db:"headline"`
	Body           string    `db:"body"`
	UpdatedAt      time.Time `db:"updated_at"`
}

//
// Assembled digest
//

// Section is the content block for one neighborhood.
type Section struct {
	Neighborhood *neighborhood.Record
	Stories      []Story
}

// Digest is the full payload for one recipient, handed to the renderer.
type Digest struct {
	Recipient recipient.Recipient
	Date      string // recipient-local, 2006-01-02

	Primary    Section
	Satellites []Section

	WeatherStory *weather.Story
	Current      *weather.Current

	Ads    *ads.Placement
	Teaser string // optional information-gap teaser for the subject line
}

// LeadStory returns the first primary story, or nil for an empty digest.
func (d *Digest) LeadStory() *Story {
	if len(d.Primary.Stories) == 0 {
		return nil
	}
	return &d.Primary.Stories[0]
}

// StoryCount totals stories across all sections.
func (d *Digest) StoryCount() int {
	n := len(d.Primary.Stories)
	for _, s := range d.Satellites {
		n += len(s.Stories)
	}
	return n
}

// NeighborhoodCount totals sections with at least one story.
func (d *Digest) NeighborhoodCount() int {
	n := 0
	if len(d.Primary.Stories) > 0 {
		n++
	}
	for _, s := range d.Satellites {
		if len(s.Stories) > 0 {
			n++
		}
	}
	return n
}
