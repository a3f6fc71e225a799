// internal/sendlog/model.go
//
// Send records and rate-log entries.
//
// Context
// -------
// A SendRecord is the idempotency and audit row proving one digest went to
// one recipient on one local calendar date.  The unique key
// (recipient_key, send_date, digest_type) is what keeps the scheduled run
// from double-sending, and what the resend path upserts against.
//
// Rate-log rows are append-only events, one per on-demand resend attempt,
// used only for counting.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package sendlog

import (
	"fmt"
	"time"
)

// TypeDaily is the digest type this pipeline sends.  Other periodic editions
// (the weekend edition, for one) write the same table with their own type.
const TypeDaily = "daily"

//
// Trigger variant
//

// Trigger is the closed set of send causes.
type Trigger string

const (
	TriggerScheduled          Trigger = "scheduled"
	TriggerCityChange         Trigger = "city_change"
	TriggerNeighborhoodChange Trigger = "neighborhood_change"
	TriggerTopicChange        Trigger = "topic_change"
)

// ResendTriggers is the subset that reaches the on-demand path.
var ResendTriggers = []Trigger{TriggerCityChange, TriggerNeighborhoodChange, TriggerTopicChange}

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerScheduled, TriggerCityChange, TriggerNeighborhoodChange, TriggerTopicChange:
		return true
	}
	return false
}

// IsResend reports whether t is an on-demand trigger.
func (t Trigger) IsResend() bool {
	return t.Valid() && t != TriggerScheduled
}

// ParseTrigger maps a wire label to a Trigger.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown trigger %q", s)
	}
	return t, nil
}

//
// Rows
//

// SendRecord mirrors one row in the `send_log` table.
type SendRecord struct {
	ID                uint64    `db:"id"`
	RecipientKey      string    `db:"recipient_key"`
	SendDate          string    `db:"send_date"` // recipient-local, 2006-01-02
	DigestType        string    `db:"digest_type"`
	Trigger           Trigger   `db:"trigger"`
	StoryCount        int       `db:"story_count"`
	NeighborhoodCount int       `db:"neighborhood_count"`
	HasHeaderAd       bool      `db:"has_header_ad"`
	HasNativeAd       bool      `db:"has_native_ad"`
	CorrelationID     string    `db:"correlation_id"`
	CreatedAt         time.Time `db:"created_at"`
}

// RateEntry mirrors one row in the append-only `rate_log` table.
type RateEntry struct {
	ID           uint64    `db:"id"`
	RecipientKey string    `db:"recipient_key"`
	Trigger      Trigger   `db:"trigger"`
	EventDate    string    `db:"event_date"` // recipient-local, 2006-01-02
	CreatedAt    time.Time `db:"created_at"`
}
