package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type countingSource struct {
	fetches int
	err     error
}

func (c *countingSource) Fetch(context.Context, float64, float64, string) (*Forecast, error) {
	c.fetches++
	if c.err != nil {
		return nil, c.err
	}
	return &Forecast{CurrentC: float64(c.fetches)}, nil
}

func TestCachedSource_OneFetchPerHour(t *testing.T) {
	src := &countingSource{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 11, 9, 10, 0, 0, time.UTC))
	cs := NewCachedSource(src, 8, clock)

	for i := 0; i < 3; i++ {
		f, err := cs.Fetch(context.Background(), 40.7, -74.0, "America/New_York")
		if err != nil {
			t.Fatalf("Fetch #%d: %v", i+1, err)
		}
		if f.CurrentC != 1 {
			t.Fatalf("got fetch result %v, want the cached first", f.CurrentC)
		}
	}
	if src.fetches != 1 {
		t.Fatalf("upstream fetches = %d, want 1", src.fetches)
	}

	// Crossing the hour rotates the key.
	clock.Advance(time.Hour)
	if _, err := cs.Fetch(context.Background(), 40.7, -74.0, "America/New_York"); err != nil {
		t.Fatal(err)
	}
	if src.fetches != 2 {
		t.Fatalf("upstream fetches = %d, want 2 after hour rollover", src.fetches)
	}
}

func TestCachedSource_DistinctCoordinates(t *testing.T) {
	src := &countingSource{}
	cs := NewCachedSource(src, 8, clockwork.NewFakeClock())

	cs.Fetch(context.Background(), 40.7, -74.0, "America/New_York")
	cs.Fetch(context.Background(), 48.85, 2.35, "Europe/Paris")
	if src.fetches != 2 {
		t.Fatalf("upstream fetches = %d, want 2", src.fetches)
	}
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("upstream 429")}
	cs := NewCachedSource(src, 8, clockwork.NewFakeClock())

	if _, err := cs.Fetch(context.Background(), 40.7, -74.0, "UTC"); err == nil {
		t.Fatal("expected error")
	}
	src.err = nil
	f, err := cs.Fetch(context.Background(), 40.7, -74.0, "UTC")
	if err != nil || f == nil {
		t.Fatalf("retry after error: %v, %v", f, err)
	}
	if src.fetches != 2 {
		t.Fatalf("upstream fetches = %d, want 2", src.fetches)
	}
}
