// internal/content/assembler_test.go
//
// Unit-tests for digest assembly.
//
// Context
// -------
// Fakes stand in for the story repository, the neighborhood cache, the
// forecast client, and the ad allocator.  The behaviours under test:
//
//   • Paused-topic filtering, with the daily summary exempt.
//   • Summary-first ordering inside a section.
//   • Brief synthesis when no summary article exists.
//   • A forecast failure degrades; a primary-section failure aborts.
//   • Satellite failures skip the section, not the recipient.
//   • Neighborhood-prefix cleaning on section stories.
//
// Run: go test ./internal/content -v

package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ads"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/weather"
)

var assembleNow = time.Date(2025, 6, 11, 11, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type fakeStories struct {
	byNeighborhood map[uint64][]Story // keyed by first content ID
	summary        *Story
	brief          *Brief
	inserted       []*Story
	storiesErr     error
}

func (f *fakeStories) WithLookback(_ context.Context, ids []uint64, _ time.Time, limit int) ([]Story, error) {
	if f.storiesErr != nil {
		return nil, f.storiesErr
	}
	s := f.byNeighborhood[ids[0]]
	if len(s) > limit {
		s = s[:limit]
	}
	out := make([]Story, len(s))
	copy(out, s)
	return out, nil
}

func (f *fakeStories) FindSummary(context.Context, []uint64, string) (*Story, error) {
	return f.summary, nil
}

func (f *fakeStories) Latest(context.Context, uint64) (*Brief, error) { return f.brief, nil }

func (f *fakeStories) BySlug(_ context.Context, slug string) (*Story, error) {
	for _, s := range f.inserted {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStories) InsertSynthesized(_ context.Context, _ uint64, s *Story) error {
	f.inserted = append(f.inserted, s)
	return nil
}

type fakeHoods struct {
	entries map[uint64]*neighborhood.Entry
}

func (f *fakeHoods) Get(_ context.Context, id uint64) (*neighborhood.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("neighborhood %d not found", id)
	}
	return e, nil
}

type fakeForecasts struct {
	forecast *weather.Forecast
	err      error
}

func (f *fakeForecasts) Fetch(context.Context, float64, float64, string) (*weather.Forecast, error) {
	return f.forecast, f.err
}

type fakeAds struct{ placement *ads.Placement }

func (f *fakeAds) Allocate(context.Context, []uint64, string) *ads.Placement {
	if f.placement == nil {
		return &ads.Placement{}
	}
	return f.placement
}

func entry(id uint64, slug, name string) *neighborhood.Entry {
	return &neighborhood.Entry{
		Record:     &neighborhood.Record{ID: id, Slug: slug, Name: name, City: "New York", Country: "USA"},
		ContentIDs: []uint64{id},
	}
}

func assembleRecipient() recipient.Recipient {
	primary := uint64(1)
	return recipient.Recipient{
		Source:                recipient.SourceAccount,
		ID:                    7,
		Email:                 "a@example.com",
		Timezone:              "UTC",
		DigestEnabled:         true,
		PrimaryNeighborhoodID: &primary,
		NeighborhoodIDs:       []uint64{1, 2},
	}
}

func newTestAssembler(stories *fakeStories, hoods *fakeHoods, fc *fakeForecasts) *Assembler {
	return NewAssembler(stories, hoods, fc, &fakeAds{},
		clockwork.NewFakeClockAt(assembleNow), zap.NewNop().Sugar(),
		Limits{PrimaryStories: 5, SatelliteStories: 3})
}

func TestAssemble_PausedTopicsFilteredSummaryExempt(t *testing.T) {
	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {
			{ID: 1, Headline: "Crime report", Category: strPtr("crime")},
			{ID: 2, Headline: "Summary", Category: strPtr(SummaryCategory)},
			{ID: 3, Headline: "Park news", Category: strPtr("parks")},
		},
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}
	rec.PausedTopics = []string{"crime", SummaryCategory}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{}).Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(d.Primary.Stories) != 2 {
		t.Fatalf("stories = %+v, want summary and parks", d.Primary.Stories)
	}
	// Even a paused daily_summary stays, and it sorts first.
	if !d.Primary.Stories[0].IsSummary() {
		t.Fatalf("lead story = %+v, want the summary", d.Primary.Stories[0])
	}
	if d.Primary.Stories[1].Headline != "Park news" {
		t.Fatalf("second story = %+v", d.Primary.Stories[1])
	}
}

func TestAssemble_SynthesizesSummaryFromBrief(t *testing.T) {
	stories := &fakeStories{
		byNeighborhood: map[uint64][]Story{
			1: {{ID: 1, Headline: "Regular story"}},
		},
		brief: &Brief{NeighborhoodID: 1, Headline: "Quiet day on the canal", Body: "Not much happened."},
	}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "gowanus", "Gowanus")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{}).Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(stories.inserted) != 1 {
		t.Fatalf("synthesized %d articles, want 1", len(stories.inserted))
	}
	lead := d.Primary.Stories[0]
	if !lead.IsSummary() || lead.Headline != "Quiet day on the canal" {
		t.Fatalf("lead = %+v, want the synthesized summary", lead)
	}
	wantSlug := BriefSlug("gowanus", "2025-06-11", "Quiet day on the canal")
	if lead.Slug != wantSlug {
		t.Fatalf("slug = %q, want %q", lead.Slug, wantSlug)
	}
}

func TestAssemble_ForecastFailureDegrades(t *testing.T) {
	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {{ID: 1, Headline: "Story", Category: strPtr(SummaryCategory)}},
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{err: errors.New("api down")}).
		Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("forecast failure aborted assembly: %v", err)
	}
	if d.WeatherStory != nil || d.Current != nil {
		t.Fatalf("weather fields set despite fetch failure: %+v", d)
	}
	if len(d.Primary.Stories) != 1 {
		t.Fatalf("content missing: %+v", d.Primary)
	}
}

func TestAssemble_SatelliteFailureSkipsSection(t *testing.T) {
	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {{ID: 1, Headline: "Primary story", Category: strPtr(SummaryCategory)}},
		// Neighborhood 2 is missing from the hood cache.
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{}).
		Assemble(context.Background(), assembleRecipient())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(d.Satellites) != 0 {
		t.Fatalf("satellites = %+v, want the broken one skipped", d.Satellites)
	}
}

func TestAssemble_PrimaryFailureAborts(t *testing.T) {
	stories := &fakeStories{storiesErr: errors.New("db down")}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{
		1: entry(1, "greenpoint", "Greenpoint"),
		2: entry(2, "williamsburg", "Williamsburg"),
	}}

	if _, err := newTestAssembler(stories, hoods, &fakeForecasts{}).
		Assemble(context.Background(), assembleRecipient()); err == nil {
		t.Fatal("expected error when the primary section fails")
	}
}

func TestAssemble_NoPrimaryNeighborhood(t *testing.T) {
	rec := assembleRecipient()
	rec.PrimaryNeighborhoodID = nil

	_, err := newTestAssembler(&fakeStories{}, &fakeHoods{}, &fakeForecasts{}).
		Assemble(context.Background(), rec)
	if err == nil {
		t.Fatal("expected error for unresolved primary")
	}
}

func TestAssemble_CleansNeighborhoodPrefix(t *testing.T) {
	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {{ID: 1, Headline: "Greenpoint: Pool reopens", Category: strPtr(SummaryCategory)}},
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{}).Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if d.Primary.Stories[0].Headline != "Pool reopens" {
		t.Fatalf("headline = %q, want prefix stripped", d.Primary.Stories[0].Headline)
	}
}

func TestAssemble_TeaserFromLeadStory(t *testing.T) {
	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {{ID: 1, Headline: "Summary", Category: strPtr(SummaryCategory),
			Teaser: strPtr("What the council didn't say")}},
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{}).Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if d.Teaser != "What the council didn't say" {
		t.Fatalf("teaser = %q", d.Teaser)
	}
}

func TestAssemble_WeatherStoryAttached(t *testing.T) {
	f := &weather.Forecast{CurrentC: 20}
	today := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.Days = append(f.Days, weather.Day{Date: today.AddDate(0, 0, i), MaxC: 20})
	}
	f.Days[1].SnowCM = 15 // safety story tomorrow

	stories := &fakeStories{byNeighborhood: map[uint64][]Story{
		1: {{ID: 1, Headline: "Story", Category: strPtr(SummaryCategory)}},
	}}
	hoods := &fakeHoods{entries: map[uint64]*neighborhood.Entry{1: entry(1, "greenpoint", "Greenpoint")}}

	rec := assembleRecipient()
	rec.NeighborhoodIDs = []uint64{1}

	d, err := newTestAssembler(stories, hoods, &fakeForecasts{forecast: f}).
		Assemble(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if d.WeatherStory == nil || d.WeatherStory.Priority != weather.PrioritySafety {
		t.Fatalf("weather story = %+v, want the safety story", d.WeatherStory)
	}
	if d.Current == nil || d.Current.TempC != 20 {
		t.Fatalf("current snapshot = %+v", d.Current)
	}
}
