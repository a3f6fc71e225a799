// internal/sender/sender.go
//
// Digest delivery.
//
// Context
// -------
// Send is the one place a digest leaves the pipeline: global rate gate,
// subject line, render + transport (external, opaque), then the send record
// and best-effort ad impression bumps.  A transport failure skips the
// recipient for this run; the next scheduled run or an explicit resend
// retries naturally because no record was written.
//
// Notes
// -----
// • A record write failure after successful delivery is logged, not
//   returned: surfacing it would make callers retry and double-send.
// • Oxford commas, two spaces after periods.
package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/content"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sendlog"
)

// ErrRateLimited is returned when the global daily cap blocks the send.
var ErrRateLimited = errors.New("send blocked by global daily cap")

//
// Collaborator ports
//

// Transport renders and delivers one digest.  Implementations live outside
// this core (HTML templating plus the outbound mail service).
type Transport interface {
	Deliver(ctx context.Context, d *content.Digest, subject string) error
}

// RecordWriter persists send records.
type RecordWriter interface {
	Insert(ctx context.Context, rec *sendlog.SendRecord) error
	Upsert(ctx context.Context, rec *sendlog.SendRecord) error
}

// ImpressionCounter bumps paid-ad impression counters.
type ImpressionCounter interface {
	IncrementImpressions(ctx context.Context, ids []uint64) error
}

// GlobalGate is the global layer of the rate limiter.
type GlobalGate interface {
	AllowSend(ctx context.Context, key, date string) bool
}

//
// Sender
//

// Sender delivers assembled digests.
type Sender struct {
	transport   Transport
	records     RecordWriter
	impressions ImpressionCounter
	gate        GlobalGate
	log         *zap.SugaredLogger
}

// New wires a Sender.
func New(transport Transport, records RecordWriter, impressions ImpressionCounter,
	gate GlobalGate, log *zap.SugaredLogger) *Sender {
	return &Sender{
		transport:   transport,
		records:     records,
		impressions: impressions,
		gate:        gate,
		log:         log,
	}
}

// Send delivers one digest and records it.  Returns ErrRateLimited when the
// global cap blocks the send, or the transport error when delivery fails.
func (s *Sender) Send(ctx context.Context, d *content.Digest, trigger sendlog.Trigger) error {
	key := d.Recipient.Key()

	if !s.gate.AllowSend(ctx, key, d.Date) {
		return ErrRateLimited
	}

	subject := s.subjectFor(d)

	if err := s.transport.Deliver(ctx, d, subject); err != nil {
		metrics.SendErrorsTotal.Inc()
		return fmt.Errorf("deliver to %s: %w", key, err)
	}

	rec := &sendlog.SendRecord{
		RecipientKey:      key,
		SendDate:          d.Date,
		DigestType:        sendlog.TypeDaily,
		Trigger:           trigger,
		StoryCount:        d.StoryCount(),
		NeighborhoodCount: d.NeighborhoodCount(),
		CorrelationID:     uuid.NewString(),
	}
	if d.Ads != nil {
		rec.HasHeaderAd = d.Ads.Header != nil
		rec.HasNativeAd = d.Ads.Native != nil
	}

	var err error
	if trigger.IsResend() {
		err = s.records.Upsert(ctx, rec)
	} else {
		err = s.records.Insert(ctx, rec)
	}
	if err != nil {
		// The digest already went out; an error here must not trigger a
		// retry loop that double-sends.
		s.log.Errorw("send record write failed after delivery",
			"recipient", key, "date", d.Date, "err", err)
	}

	if d.Ads != nil {
		if ids := d.Ads.AdIDs(); len(ids) > 0 {
			if err := s.impressions.IncrementImpressions(ctx, ids); err != nil {
				s.log.Warnw("impression bump failed", "ads", ids, "err", err)
			}
		}
	}

	metrics.SendsTotal.WithLabelValues(string(trigger)).Inc()
	return nil
}

func (s *Sender) subjectFor(d *content.Digest) string {
	name := ""
	if d.Primary.Neighborhood != nil {
		name = d.Primary.Neighborhood.Name
	}
	leadHeadline := ""
	if lead := d.LeadStory(); lead != nil {
		leadHeadline = lead.Headline
	}
	return Subject(name, d.Teaser, leadHeadline, d.StoryCount() > 1)
}
