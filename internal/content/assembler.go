// internal/content/assembler.go
//
// Digest content assembly.
//
// Context
// -------
// One Assemble call builds the full payload for one recipient: a primary
// section (more stories, plus weather), a satellite section per remaining
// subscription, and the sponsored placement.  The forecast fetch and the
// ad allocation run concurrently with the story queries; both are degraded
// paths, so their failures null out rather than abort the recipient.
//
// Notes
// -----
// • The errgroup context cancels the forecast fetch if assembly is
//   abandoned, so no goroutine outlives its recipient.
// • Oxford commas, two spaces after periods.
package content

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ads"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/weather"
)

//
// Collaborator ports
//

// StorySource supplies published stories and synthesis primitives.
type StorySource interface {
	WithLookback(ctx context.Context, contentIDs []uint64, now time.Time, limit int) ([]Story, error)
	FindSummary(ctx context.Context, contentIDs []uint64, date string) (*Story, error)
	Latest(ctx context.Context, neighborhoodID uint64) (*Brief, error)
	BySlug(ctx context.Context, slug string) (*Story, error)
	InsertSynthesized(ctx context.Context, neighborhoodID uint64, s *Story) error
}

// Neighborhoods supplies cached neighborhood entries.
type Neighborhoods interface {
	Get(ctx context.Context, id uint64) (*neighborhood.Entry, error)
}

// ForecastSource fetches the 3-day outlook for coordinates.
type ForecastSource interface {
	Fetch(ctx context.Context, lat, lon float64, tz string) (*weather.Forecast, error)
}

// AdSource allocates the sponsored slots.
type AdSource interface {
	Allocate(ctx context.Context, allIDs []uint64, date string) *ads.Placement
}

//
// Assembler
//

// Limits sizes the two section kinds.
type Limits struct {
	PrimaryStories   int
	SatelliteStories int
}

// Assembler builds digest payloads.
type Assembler struct {
	stories   StorySource
	hoods     Neighborhoods
	forecasts ForecastSource
	adsrc     AdSource
	clock     clockwork.Clock
	log       *zap.SugaredLogger
	limits    Limits
}

// NewAssembler wires an Assembler.
func NewAssembler(stories StorySource, hoods Neighborhoods, forecasts ForecastSource,
	adsrc AdSource, clock clockwork.Clock, log *zap.SugaredLogger, limits Limits) *Assembler {
	return &Assembler{
		stories:   stories,
		hoods:     hoods,
		forecasts: forecasts,
		adsrc:     adsrc,
		clock:     clock,
		log:       log,
		limits:    limits,
	}
}

// Assemble builds the digest for one recipient.  The recipient must arrive
// from the resolver (or the resend rebuild) with PrimaryNeighborhoodID set
// to a subscribed neighborhood.
func (a *Assembler) Assemble(ctx context.Context, rec recipient.Recipient) (*Digest, error) {
	if rec.PrimaryNeighborhoodID == nil {
		return nil, fmt.Errorf("assemble %s: no primary neighborhood", rec.Key())
	}

	primary, err := a.hoods.Get(ctx, *rec.PrimaryNeighborhoodID)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: primary neighborhood: %w", rec.Key(), err)
	}

	dc, err := weather.NewDateContext(a.clock.Now(), rec.Timezone)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", rec.Key(), err)
	}
	date := dc.Today().Format("2006-01-02")

	d := &Digest{Recipient: rec, Date: date}

	g, gctx := errgroup.WithContext(ctx)

	// Weather: primary section only; degraded on failure.
	g.Go(func() error {
		f, err := a.forecasts.Fetch(gctx, primary.Record.Lat, primary.Record.Lon, rec.Timezone)
		if err != nil {
			a.log.Warnw("forecast fetch failed, sending without weather",
				"recipient", rec.Key(), "err", err)
			metrics.ForecastErrorsTotal.Inc()
			return nil
		}
		d.Current = weather.Snapshot(f)
		if story := weather.GenerateStory(f, dc, primary.Record.City, primary.Record.Country); story != nil {
			d.WeatherStory = story
			metrics.WeatherStoriesTotal.WithLabelValues(story.Priority.String()).Inc()
		}
		return nil
	})

	// Ads: once per assembly, over the full subscription set.  Allocate
	// degrades internally.
	g.Go(func() error {
		d.Ads = a.adsrc.Allocate(gctx, rec.NeighborhoodIDs, date)
		return nil
	})

	// Sections: primary first, then satellites in subscription order.
	g.Go(func() error {
		section, err := a.buildSection(gctx, primary, &rec, a.limits.PrimaryStories, dc)
		if err != nil {
			return err
		}
		d.Primary = *section

		for _, id := range rec.NeighborhoodIDs {
			if id == *rec.PrimaryNeighborhoodID {
				continue
			}
			entry, err := a.hoods.Get(gctx, id)
			if err != nil {
				a.log.Warnw("satellite neighborhood load failed, skipping section",
					"recipient", rec.Key(), "neighborhood", id, "err", err)
				continue
			}
			sat, err := a.buildSection(gctx, entry, &rec, a.limits.SatelliteStories, dc)
			if err != nil {
				a.log.Warnw("satellite section failed, skipping",
					"recipient", rec.Key(), "neighborhood", id, "err", err)
				continue
			}
			d.Satellites = append(d.Satellites, *sat)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if lead := d.LeadStory(); lead != nil && lead.Teaser != nil {
		d.Teaser = *lead.Teaser
	}
	return d, nil
}

// buildSection fetches, filters, and orders one neighborhood's stories.
func (a *Assembler) buildSection(ctx context.Context, entry *neighborhood.Entry,
	rec *recipient.Recipient, limit int, dc weather.DateContext) (*Section, error) {

	stories, err := a.stories.WithLookback(ctx, entry.ContentIDs, a.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("stories for %s: %w", entry.Record.Slug, err)
	}

	// Paused-topic filter; the daily summary is always exempt.
	kept := stories[:0]
	for _, s := range stories {
		if !s.IsSummary() && s.CategoryLabel() != "" && rec.TopicPaused(s.CategoryLabel()) {
			continue
		}
		kept = append(kept, s)
	}
	stories = kept

	// Summary first, rest by recency (the repository already returns newest
	// first; a stable sort keeps that order within each group).
	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].IsSummary() && !stories[j].IsSummary()
	})

	stories, err = a.ensureSummary(ctx, entry, stories, limit, dc)
	if err != nil {
		// Brief synthesis is a degraded path: log and ship without it.
		a.log.Warnw("summary fallback failed, section ships without one",
			"neighborhood", entry.Record.Slug, "err", err)
	}

	for i := range stories {
		CleanStory(&stories[i], entry.Record.Name)
	}

	return &Section{Neighborhood: entry.Record, Stories: stories}, nil
}

// ensureSummary guarantees the section leads with a daily summary when one
// can be found or synthesized.
func (a *Assembler) ensureSummary(ctx context.Context, entry *neighborhood.Entry,
	stories []Story, limit int, dc weather.DateContext) ([]Story, error) {

	for i := range stories {
		if stories[i].IsSummary() {
			return stories, nil
		}
	}

	date := dc.Today().Format("2006-01-02")
	summary, err := a.stories.FindSummary(ctx, entry.ContentIDs, date)
	if err != nil {
		return stories, err
	}
	if summary == nil {
		brief, err := a.stories.Latest(ctx, entry.Record.ID)
		if err != nil || brief == nil {
			return stories, err
		}
		summary, err = EnsureBriefStory(ctx, a.stories, entry.Record, brief, date, a.clock.Now())
		if err != nil {
			return stories, err
		}
	}

	stories = append([]Story{*summary}, stories...)
	if len(stories) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}
