// internal/resend/orchestrator.go
//
// On-demand re-delivery after a preference change.
//
// Context
// -------
// When a recipient changes city, neighborhoods, or topics, the product
// promise is an immediate fresh digest.  This path bypasses the scheduled
// resolver, rebuilds the recipient from current preferences, checks both
// rate layers, and reuses the assembler and sender.  The send record is
// upserted on the (recipient, date, type) key, so a same-day replace
// converges to one row even when it races the scheduled run.
//
// On a weekend-edition day the daily slot belongs to a different periodic
// edition, so resends are skipped outright.
//
// Notes
// -----
// • The rate log is appended once past the rate checks, whatever the send
//   outcome; a failed delivery still consumed an attempt.
// • Oxford commas, two spaces after periods.
package resend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/content"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sender"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sendlog"
)

//
// Result variant
//

// Result is the closed set of resend outcomes.
type Result int

const (
	// ResultSent means the digest went out.
	ResultSent Result = iota
	// ResultRateLimited means a cap blocked the send; the recipient was
	// told the change applies tomorrow.
	ResultRateLimited
	// ResultSkippedEdition means a different periodic edition owns today.
	ResultSkippedEdition
	// ResultIneligible means the recipient no longer qualifies (digests
	// off, no neighborhoods, or gone).
	ResultIneligible
	// ResultFailed means assembly or delivery errored; no record written.
	ResultFailed
)

// String returns the metrics label for r.
func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultRateLimited:
		return "rate_limited"
	case ResultSkippedEdition:
		return "skipped_edition"
	case ResultIneligible:
		return "ineligible"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

//
// Collaborator ports
//

// RecipientSource rebuilds one recipient from current preferences.
type RecipientSource interface {
	ByID(ctx context.Context, src recipient.Source, id uint64) (*recipient.Recipient, error)
}

// Assembler builds the digest payload.
type Assembler interface {
	Assemble(ctx context.Context, rec recipient.Recipient) (*content.Digest, error)
}

// DigestSender delivers it.
type DigestSender interface {
	Send(ctx context.Context, d *content.Digest, trigger sendlog.Trigger) error
}

// Limiter exposes both rate layers.
type Limiter interface {
	AllowResend(ctx context.Context, key, date string) bool
	AllowSend(ctx context.Context, key, date string) bool
}

// RateLogger appends per-trigger attempts.
type RateLogger interface {
	AppendRate(ctx context.Context, key string, trigger sendlog.Trigger, date string) error
}

// Notifier tells a recipient their change applies on the next scheduled
// send.  Best-effort; failures are logged only.
type Notifier interface {
	NotifyDeferred(ctx context.Context, rec *recipient.Recipient, trigger sendlog.Trigger) error
}

//
// Orchestrator
//

// Orchestrator drives one on-demand resend.
type Orchestrator struct {
	recipients RecipientSource
	cities     recipient.NeighborhoodCities
	assembler  Assembler
	sender     DigestSender
	limiter    Limiter
	rates      RateLogger
	notifier   Notifier
	clock      clockwork.Clock
	log        *zap.SugaredLogger
	editionDay time.Weekday
}

// New wires an Orchestrator.  editionDay is the weekday owned by the other
// periodic edition (config, default Sunday).
func New(recipients RecipientSource, cities recipient.NeighborhoodCities,
	assembler Assembler, ds DigestSender, limiter Limiter, rates RateLogger,
	notifier Notifier, clock clockwork.Clock, log *zap.SugaredLogger,
	editionDay time.Weekday) *Orchestrator {
	return &Orchestrator{
		recipients: recipients,
		cities:     cities,
		assembler:  assembler,
		sender:     ds,
		limiter:    limiter,
		rates:      rates,
		notifier:   notifier,
		clock:      clock,
		log:        log,
		editionDay: editionDay,
	}
}

// Resend rebuilds and re-delivers the digest for one recipient.  The error
// return carries infrastructure failures; policy outcomes (rate limits,
// ineligibility, edition day) arrive in Result with a nil error.
func (o *Orchestrator) Resend(ctx context.Context, src recipient.Source, id uint64, trigger sendlog.Trigger) (Result, error) {
	if !trigger.IsResend() {
		return ResultFailed, fmt.Errorf("resend: trigger %q is not an on-demand trigger", trigger)
	}

	result, err := o.resend(ctx, src, id, trigger)
	metrics.ResendsTotal.WithLabelValues(string(trigger), result.String()).Inc()
	return result, err
}

func (o *Orchestrator) resend(ctx context.Context, src recipient.Source, id uint64, trigger sendlog.Trigger) (Result, error) {
	rec, err := o.recipients.ByID(ctx, src, id)
	if errors.Is(err, recipient.ErrNotFound) {
		return ResultIneligible, nil
	}
	if err != nil {
		return ResultFailed, fmt.Errorf("resend %s:%d: rebuild: %w", src, id, err)
	}
	if !rec.DigestEnabled || len(rec.NeighborhoodIDs) == 0 {
		return ResultIneligible, nil
	}

	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return ResultFailed, fmt.Errorf("resend %s: timezone %q: %w", rec.Key(), rec.Timezone, err)
	}
	local := o.clock.Now().In(loc)
	if local.Weekday() == o.editionDay {
		return ResultSkippedEdition, nil
	}
	date := local.Format("2006-01-02")

	if err := recipient.ResolvePrimary(ctx, rec, o.cities); err != nil {
		return ResultFailed, fmt.Errorf("resend %s: primary: %w", rec.Key(), err)
	}

	key := rec.Key()
	if !o.limiter.AllowResend(ctx, key, date) || !o.limiter.AllowSend(ctx, key, date) {
		o.notifyDeferred(ctx, rec, trigger)
		return ResultRateLimited, nil
	}

	// Past the rate checks the attempt counts, whatever happens next.
	if err := o.rates.AppendRate(ctx, key, trigger, date); err != nil {
		o.log.Warnw("rate-log append failed", "recipient", key, "err", err)
	}

	d, err := o.assembler.Assemble(ctx, *rec)
	if err != nil {
		return ResultFailed, fmt.Errorf("resend %s: assemble: %w", key, err)
	}

	if err := o.sender.Send(ctx, d, trigger); err != nil {
		if errors.Is(err, sender.ErrRateLimited) {
			o.notifyDeferred(ctx, rec, trigger)
			return ResultRateLimited, nil
		}
		return ResultFailed, fmt.Errorf("resend %s: %w", key, err)
	}
	return ResultSent, nil
}

func (o *Orchestrator) notifyDeferred(ctx context.Context, rec *recipient.Recipient, trigger sendlog.Trigger) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyDeferred(ctx, rec, trigger); err != nil {
		o.log.Warnw("deferred notice failed", "recipient", rec.Key(), "err", err)
	}
}
