// internal/ads/allocator.go
//
// Sponsored-slot allocator.
//
// Context
// -------
// Each digest has a header slot and a native slot.  Under the exclusivity
// policy the single best-matching paid ad fills both slots, unless a second
// independently matching ad exists to take the native slot.  With no paid
// match at all, one random house ad (never the reserved non-subscriber kind)
// fills both, after its dynamic placeholders are resolved.
//
// Ad failures are degraded conditions: the caller ships the digest without
// sponsorship rather than skipping the recipient.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package ads

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
)

// Source supplies candidate ads.
type Source interface {
	ActiveFor(ctx context.Context, neighborhoodIDs []uint64, date string) ([]Ad, error)
	RandomHouse(ctx context.Context) (*HouseAd, error)
}

// Directory answers the two neighborhood questions house ads need.
type Directory interface {
	ActiveCount(ctx context.Context) (int, error)
	DiscoverURL(ctx context.Context, excludeIDs []uint64) (string, error)
}

// Allocator selects sponsored content for one recipient.
type Allocator struct {
	source Source
	dir    Directory
	log    *zap.SugaredLogger
}

// NewAllocator wires an Allocator.
func NewAllocator(source Source, dir Directory, log *zap.SugaredLogger) *Allocator {
	return &Allocator{source: source, dir: dir, log: log}
}

// Allocate fills the header and native slots for a recipient subscribed to
// allIDs, on the given local date.  Either slot may come back nil.
func (a *Allocator) Allocate(ctx context.Context, allIDs []uint64, date string) *Placement {
	paid, err := a.source.ActiveFor(ctx, allIDs, date)
	if err != nil {
		a.log.Warnw("active-ad query failed, trying house pool", "err", err)
		paid = nil
	}

	if len(paid) > 0 {
		best := placedFromAd(&paid[0])
		native := best
		if len(paid) > 1 {
			native = placedFromAd(&paid[1])
		}
		metrics.AdFillsTotal.WithLabelValues("header", "paid").Inc()
		metrics.AdFillsTotal.WithLabelValues("native", "paid").Inc()
		return &Placement{Header: best, Native: native}
	}

	house, err := a.source.RandomHouse(ctx)
	if err != nil {
		if err != ErrNoHouseAd {
			a.log.Warnw("house-ad query failed", "err", err)
		}
		return &Placement{}
	}

	a.resolvePlaceholders(ctx, house, allIDs)
	placed := placedFromHouse(house)
	metrics.AdFillsTotal.WithLabelValues("header", "house").Inc()
	metrics.AdFillsTotal.WithLabelValues("native", "house").Inc()
	return &Placement{Header: placed, Native: placed}
}

// resolvePlaceholders substitutes dynamic values into the house ad: the live
// neighborhood count in the body, and a fresh destination for the discover
// kind.  Failures leave the static copy in place.
func (a *Allocator) resolvePlaceholders(ctx context.Context, h *HouseAd, excludeIDs []uint64) {
	if strings.Contains(h.Body, "{neighborhood_count}") {
		n, err := a.dir.ActiveCount(ctx)
		if err != nil {
			a.log.Warnw("neighborhood count failed, keeping placeholder copy", "err", err)
		} else {
			h.Body = strings.ReplaceAll(h.Body, "{neighborhood_count}", strconv.Itoa(n))
		}
	}

	if h.Kind == KindDiscover {
		u, err := a.dir.DiscoverURL(ctx, excludeIDs)
		if err != nil {
			a.log.Warnw("discover URL resolution failed, keeping static URL", "err", err)
			return
		}
		h.ClickURL = u
	}
}

func placedFromAd(ad *Ad) *Placed {
	return &Placed{
		Kind:     KindPaid,
		Ad:       ad,
		Sponsor:  ad.Sponsor,
		Headline: ad.Headline,
		ImageURL: ad.ImageURL,
		ClickURL: ad.ClickURL,
	}
}

func placedFromHouse(h *HouseAd) *Placed {
	return &Placed{
		Kind:     KindHouse,
		House:    h,
		Headline: h.Headline,
		ImageURL: h.ImageURL,
		ClickURL: h.ClickURL,
	}
}
