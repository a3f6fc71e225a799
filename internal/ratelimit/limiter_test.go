// internal/ratelimit/limiter_test.go
//
// Unit-tests for the layered daily caps.
//
// Context
// -------
// The limiter is fail-open: a count-query error logs, bumps a metric, and
// allows the send.  Below-cap counts allow, at-cap counts deny.
//
// Run: go test ./internal/ratelimit -v

package ratelimit

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeCounter struct {
	sends, rates int
	err          error
}

func (f *fakeCounter) CountSends(context.Context, string, string) (int, error) {
	return f.sends, f.err
}

func (f *fakeCounter) CountRate(context.Context, string, string) (int, error) {
	return f.rates, f.err
}

func newLimiter(c *fakeCounter) *Limiter {
	return New(c, zap.NewNop().Sugar(), 3, 5)
}

func TestAllowResend(t *testing.T) {
	cases := []struct {
		name  string
		rates int
		want  bool
	}{
		{"below cap", 2, true},
		{"at cap", 3, false},
		{"over cap", 7, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := newLimiter(&fakeCounter{rates: c.rates})
			if got := l.AllowResend(context.Background(), "account:1", "2025-06-11"); got != c.want {
				t.Fatalf("AllowResend with %d attempts = %v, want %v", c.rates, got, c.want)
			}
		})
	}
}

func TestAllowSend(t *testing.T) {
	cases := []struct {
		name  string
		sends int
		want  bool
	}{
		{"below cap", 4, true},
		{"at cap", 5, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := newLimiter(&fakeCounter{sends: c.sends})
			if got := l.AllowSend(context.Background(), "account:1", "2025-06-11"); got != c.want {
				t.Fatalf("AllowSend with %d sends = %v, want %v", c.sends, got, c.want)
			}
		})
	}
}

func TestFailOpenOnStoreError(t *testing.T) {
	l := newLimiter(&fakeCounter{err: errors.New("db down")})
	if !l.AllowResend(context.Background(), "account:1", "2025-06-11") {
		t.Fatal("resend layer failed closed on store error")
	}
	if !l.AllowSend(context.Background(), "account:1", "2025-06-11") {
		t.Fatal("global layer failed closed on store error")
	}
}
