// internal/ratelimit/limiter.go
//
// Layered daily send caps.
//
// Context
// -------
// Two independent counters protect recipients from floods:
//
//	trigger layer – at most N on-demand resends per recipient per local
//	                calendar day (rate_log).
//	global layer  – at most M digest sends of any type per recipient per
//	                local calendar day (send_log, all digest types).
//
// Both layers fail open: when the count query errors we log, bump a metric,
// and permit the send.  Dropping every digest during a database blip is
// worse than letting a handful of extra sends through.
//
// A breach is not an error; callers get "not allowed" and are expected to
// tell the recipient the change applies on the next scheduled send.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package ratelimit

import (
	"context"

	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/metrics"
)

// Counter is the slice of the send-log repository the limiter needs.
type Counter interface {
	CountSends(ctx context.Context, key, date string) (int, error)
	CountRate(ctx context.Context, key, date string) (int, error)
}

// Limiter enforces both layers.
type Limiter struct {
	counts     Counter
	log        *zap.SugaredLogger
	triggerCap int
	globalCap  int
}

// New wires a Limiter.  Caps come from config (defaults 3 and 5).
func New(counts Counter, log *zap.SugaredLogger, triggerCap, globalCap int) *Limiter {
	return &Limiter{counts: counts, log: log, triggerCap: triggerCap, globalCap: globalCap}
}

// AllowResend reports whether one more on-demand resend is permitted for
// (key, date).  Fail-open on store error.
func (l *Limiter) AllowResend(ctx context.Context, key, date string) bool {
	n, err := l.counts.CountRate(ctx, key, date)
	if err != nil {
		l.log.Warnw("resend rate count failed, allowing", "recipient", key, "err", err)
		metrics.RateLimitFailOpenTotal.Inc()
		return true
	}
	if n >= l.triggerCap {
		metrics.RateLimitDenialsTotal.WithLabelValues("trigger").Inc()
		return false
	}
	return true
}

// AllowSend reports whether one more digest send of any type is permitted
// for (key, date).  Fail-open on store error.
func (l *Limiter) AllowSend(ctx context.Context, key, date string) bool {
	n, err := l.counts.CountSends(ctx, key, date)
	if err != nil {
		l.log.Warnw("global send count failed, allowing", "recipient", key, "err", err)
		metrics.RateLimitFailOpenTotal.Inc()
		return true
	}
	if n >= l.globalCap {
		metrics.RateLimitDenialsTotal.WithLabelValues("global").Inc()
		return false
	}
	return true
}
