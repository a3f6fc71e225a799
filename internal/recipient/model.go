// internal/recipient/model.go
//
// Recipient model for the digest pipeline.
//
// Context
// -------
// Digest recipients come from two populations that live in different tables:
//
//	user        – linked-account holders (signed up, may also subscribe).
//	subscriber  – anonymous e-mail subscriptions (verified only).
//
// Both collapse into one Recipient value here.  The pipeline treats
// recipients as read-only; the single exception is the lazy referral-code
// backfill performed by the resolver.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package recipient

import "fmt"

//
// Source variant
//

// Source is the closed set of recipient origins.
type Source int

const (
	// SourceAccount is a linked-account holder from the user table.
	SourceAccount Source = iota
	// SourceSubscription is an anonymous verified e-mail subscription.
	SourceSubscription
)

// String returns the storage label for s.
func (s Source) String() string {
	switch s {
	case SourceAccount:
		return "account"
	case SourceSubscription:
		return "subscription"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ParseSource maps a storage label back to a Source.
func ParseSource(s string) (Source, error) {
	switch s {
	case "account":
		return SourceAccount, nil
	case "subscription":
		return SourceSubscription, nil
	default:
		return 0, fmt.Errorf("unknown recipient source %q", s)
	}
}

//
// Recipient aggregate
//

// Recipient is one digest destination, merged from either population.
// NeighborhoodIDs preserves subscription order; the first entry is the
// default primary when no better signal exists.
type Recipient struct {
	Source Source
	ID     uint64

	Email            string
	Timezone         string
	DigestEnabled    bool
	UnsubscribeToken string
	ReferralCode     string

	PrimaryNeighborhoodID *uint64
	PrimaryCity           string
	NeighborhoodIDs       []uint64
	PausedTopics          []string
}

// Key returns the stable identity used by send logs and rate logs.  It is
// unique across both populations.
func (r *Recipient) Key() string {
	return fmt.Sprintf("%s:%d", r.Source, r.ID)
}

// TopicPaused reports whether the recipient muted the given category label.
func (r *Recipient) TopicPaused(label string) bool {
	for _, t := range r.PausedTopics {
		if t == label {
			return true
		}
	}
	return false
}
