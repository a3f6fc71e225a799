// internal/scheduler/runner.go
//
// Scheduled digest run loop.
//
// Context
// -------
// Once an hour, resolve the eligible recipients and fan out over a bounded
// worker pool: assemble, send, move on.  Recipients share no mutable state,
// so the only coupling is the database pool; Workers caps concurrency to
// stay inside its limits.
//
// A failure inside one recipient's processing never touches the others: the
// worker logs it and returns nil to the group.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/content"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sender"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sendlog"
)

//
// Collaborator ports
//

// Resolver produces the eligible set for the current instant.
type Resolver interface {
	Resolve(ctx context.Context) ([]recipient.Recipient, error)
}

// Assembler builds one digest payload.
type Assembler interface {
	Assemble(ctx context.Context, rec recipient.Recipient) (*content.Digest, error)
}

// DigestSender delivers it.
type DigestSender interface {
	Send(ctx context.Context, d *content.Digest, trigger sendlog.Trigger) error
}

//
// Runner
//

// Runner drives scheduled digest runs.
type Runner struct {
	resolver  Resolver
	assembler Assembler
	sender    DigestSender
	clock     clockwork.Clock
	log       *zap.SugaredLogger
	workers   int
}

// New wires a Runner.
func New(resolver Resolver, assembler Assembler, ds DigestSender,
	clock clockwork.Clock, log *zap.SugaredLogger, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		resolver:  resolver,
		assembler: assembler,
		sender:    ds,
		clock:     clock,
		log:       log,
		workers:   workers,
	}
}

// RunOnce executes one scheduled pass and returns the number of digests
// delivered.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	start := r.clock.Now()

	recipients, err := r.resolver.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	metrics.EligibleRecipients.Set(float64(len(recipients)))
	r.log.Infow("scheduled run resolved", "eligible", len(recipients))

	var g errgroup.Group
	g.SetLimit(r.workers)

	sent := make(chan struct{}, len(recipients))
	for _, rec := range recipients {
		rec := rec
		g.Go(func() error {
			if r.process(ctx, rec) {
				sent <- struct{}{}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(sent)

	n := len(sent)
	r.log.Infow("scheduled run complete",
		"eligible", len(recipients), "sent", n,
		"elapsed", r.clock.Now().Sub(start).String())
	return n, nil
}

// process handles one recipient, isolating every failure.
func (r *Runner) process(ctx context.Context, rec recipient.Recipient) bool {
	d, err := r.assembler.Assemble(ctx, rec)
	if err != nil {
		r.log.Errorw("assembly failed, recipient skipped this run",
			"recipient", rec.Key(), "err", err)
		return false
	}
	if d.StoryCount() == 0 {
		r.log.Infow("nothing to send, recipient skipped",
			"recipient", rec.Key())
		metrics.SkippedTotal.WithLabelValues("empty").Inc()
		return false
	}

	err = r.sender.Send(ctx, d, sendlog.TriggerScheduled)
	switch {
	case errors.Is(err, sender.ErrRateLimited):
		metrics.SkippedTotal.WithLabelValues("rate_limited").Inc()
		return false
	case err != nil:
		r.log.Errorw("delivery failed, recipient retried next run",
			"recipient", rec.Key(), "err", err)
		return false
	}
	return true
}

// Loop runs RunOnce at the top of every hour until ctx is cancelled.
func (r *Runner) Loop(ctx context.Context) error {
	for {
		next := r.clock.Now().Truncate(time.Hour).Add(time.Hour)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(next.Sub(r.clock.Now())):
		}
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.Errorw("scheduled run failed", "err", err)
		}
	}
}
