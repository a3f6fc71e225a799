// internal/ads/model.go
//
// Sponsored-content models.
//
// Context
// -------
// Two slots exist per digest: header and native.  Paid ads carry a validity
// window and a targeting scope; when no paid ad matches, a house ad from the
// internal promotional pool fills in.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package ads

import (
	"fmt"
	"time"
)

//
// Targeting variant
//

// Targeting is the closed set of paid-ad scopes.
type Targeting int

const (
	// TargetGlobal shows everywhere at normal priority.
	TargetGlobal Targeting = iota
	// TargetGlobalTakeover shows everywhere, ahead of plain global ads but
	// behind neighborhood-targeted ones.
	TargetGlobalTakeover
	// TargetNeighborhood shows only to recipients subscribed to the ad's
	// neighborhood.
	TargetNeighborhood
)

// String returns the storage label for t.
func (t Targeting) String() string {
	switch t {
	case TargetGlobal:
		return "global"
	case TargetGlobalTakeover:
		return "global_takeover"
	case TargetNeighborhood:
		return "neighborhood"
	default:
		return fmt.Sprintf("targeting(%d)", int(t))
	}
}

// ParseTargeting maps a storage label back to a Targeting.
func ParseTargeting(s string) (Targeting, error) {
	switch s {
	case "global":
		return TargetGlobal, nil
	case "global_takeover":
		return TargetGlobalTakeover, nil
	case "neighborhood":
		return TargetNeighborhood, nil
	default:
		return 0, fmt.Errorf("unknown ad targeting %q", s)
	}
}

//
// Rows
//

// Ad mirrors one row in the `ad` table.
type Ad struct {
	ID             uint64    `db:"id"`
	ImageURL       string    `db:"image_url"`
	Headline       string    `db:"headline"`
	ClickURL       string    `db:"click_url"`
	Sponsor        string    `db:"sponsor"`
	StartDate      time.Time `db:"start_date"`
	EndDate        time.Time `db:"end_date"`
	TargetingLabel string    `db:"targeting"`
	NeighborhoodID *uint64   `db:"neighborhood_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// Targeting decodes the stored label; unknown labels degrade to global so a
// bad row cannot take over a neighborhood slot.
func (a *Ad) Targeting() Targeting {
	t, err := ParseTargeting(a.TargetingLabel)
	if err != nil {
		return TargetGlobal
	}
	return t
}

// HouseAd mirrors one row in the `house_ad` pool.  Kind selects behaviour:
// KindDiscover rewrites the click URL to a dynamic destination, and
// KindNonSubscriber is reserved for logged-out surfaces and never appears in
// a digest.
type HouseAd struct {
	ID       uint64 `db:"id"`
	Kind     string `db:"kind"`
	ImageURL string `db:"image_url"`
	Headline string `db:"headline"`
	Body     string `db:"body"`
	ClickURL string `db:"click_url"`
}

// House-ad kinds.
const (
	KindDiscover      = "discover"
	KindNonSubscriber = "non_subscriber"
)

//
// Placement
//

// Kind distinguishes paid from house fills in the placement result.
type Kind int

const (
	KindPaid Kind = iota
	KindHouse
)

// Placed is one filled slot.
type Placed struct {
	Kind     Kind
	Ad       *Ad      // set when Kind == KindPaid
	House    *HouseAd // set when Kind == KindHouse
	Sponsor  string
	Headline string
	ImageURL string
	ClickURL string
}

// Placement is the allocator result; either slot may be nil.
type Placement struct {
	Header *Placed
	Native *Placed
}

// AdIDs returns the distinct paid-ad IDs in the placement, for impression
// counting.
func (p *Placement) AdIDs() []uint64 {
	seen := map[uint64]bool{}
	var ids []uint64
	for _, pl := range []*Placed{p.Header, p.Native} {
		if pl == nil || pl.Ad == nil || seen[pl.Ad.ID] {
			continue
		}
		seen[pl.Ad.ID] = true
		ids = append(ids, pl.Ad.ID)
	}
	return ids
}
