// internal/weather/cache.go
//
// Hour-scoped forecast memoization.
//
// Context
// -------
// A scheduled run assembles thousands of digests that share a few dozen
// neighborhoods, and the upstream forecast API is both rate-limited and the
// slowest call in the pipeline.  CachedSource wraps the client with a small
// LRU keyed by coordinates and the current hour, so each neighborhood costs
// one upstream fetch per run and entries expire by key rotation.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/cache"
)

// Source fetches a 3-day outlook for coordinates.
type Source interface {
	Fetch(ctx context.Context, lat, lon float64, tz string) (*Forecast, error)
}

// CachedSource memoizes Fetch per (coordinates, timezone, hour).
type CachedSource struct {
	src   Source
	lru   *cache.LRU
	clock clockwork.Clock
}

// NewCachedSource wraps src with an LRU of the given capacity.
func NewCachedSource(src Source, capacity int, clock clockwork.Clock) *CachedSource {
	return &CachedSource{
		src:   src,
		lru:   cache.New(capacity),
		clock: clock,
	}
}

// Fetch returns the cached forecast for the current hour, fetching on miss.
// Errors are not cached; the next caller retries upstream.
func (c *CachedSource) Fetch(ctx context.Context, lat, lon float64, tz string) (*Forecast, error) {
	key := fmt.Sprintf("%.4f,%.4f,%s,%d", lat, lon, tz,
		c.clock.Now().Truncate(time.Hour).Unix())
	if v, ok := c.lru.Get(key); ok {
		return v.(*Forecast), nil
	}

	f, err := c.src.Fetch(ctx, lat, lon, tz)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, f)
	return f, nil
}
