// internal/recipient/resolver.go
//
// Scheduled-run eligibility resolver.
//
// Context
// -------
// Once an hour the pipeline asks: which recipients should get the daily
// brief *right now*?  The answer is every recipient whose local wall clock
// reads the target hour (default 7), who has digests enabled, who subscribes
// to at least one neighborhood, and who has no send record for their local
// date yet.
//
// Account-linked recipients and anonymous subscriptions are pulled
// separately and merged; when both share an e-mail (case-insensitive), the
// account wins.  As a side effect the resolver backfills missing referral
// codes, best-effort and off the hot path.
//
// Notes
// -----
// • The resolver never mutates preference data; the referral backfill is the
//   single, documented exception.
// • Oxford commas, two spaces after periods.
package recipient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

//
// Collaborator ports
//

// Store supplies the two recipient populations and the referral writeback.
type Store interface {
	AccountHolders(ctx context.Context) ([]Recipient, error)
	Subscribers(ctx context.Context) ([]Recipient, error)
	SetReferralCode(ctx context.Context, src Source, id uint64, code string) error
}

// NeighborhoodCities maps neighborhood IDs to their city names, for the
// primary-city fallback in primary resolution.
type NeighborhoodCities interface {
	Cities(ctx context.Context, ids []uint64) (map[uint64]string, error)
}

// SendChecker answers "which of these recipients already got digestType on
// date?" in one batched query.
type SendChecker interface {
	SentOn(ctx context.Context, keys []string, date string, digestType string) (map[string]bool, error)
}

//
// Resolver
//

// Resolver computes the eligible set for one scheduled run.
type Resolver struct {
	store      Store
	cities     NeighborhoodCities
	sends      SendChecker
	clock      clockwork.Clock
	log        *zap.SugaredLogger
	targetHour int
	digestType string
}

// NewResolver wires a Resolver.  targetHour is recipient-local.
func NewResolver(store Store, cities NeighborhoodCities, sends SendChecker,
	clock clockwork.Clock, log *zap.SugaredLogger, targetHour int, digestType string) *Resolver {
	return &Resolver{
		store:      store,
		cities:     cities,
		sends:      sends,
		clock:      clock,
		log:        log,
		targetHour: targetHour,
		digestType: digestType,
	}
}

// Resolve returns the recipients eligible right now, with
// PrimaryNeighborhoodID resolved to a member of NeighborhoodIDs on every
// returned value.
func (rs *Resolver) Resolve(ctx context.Context) ([]Recipient, error) {
	accounts, err := rs.store.AccountHolders(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := rs.store.Subscribers(ctx)
	if err != nil {
		return nil, err
	}

	// Dedup by lowercased e-mail; accounts are merged first so they always
	// shadow a subscription sharing the address.
	seen := make(map[string]bool, len(accounts)+len(subs))
	merged := make([]Recipient, 0, len(accounts)+len(subs))
	for _, pop := range [][]Recipient{accounts, subs} {
		for _, r := range pop {
			email := strings.ToLower(strings.TrimSpace(r.Email))
			if email == "" || seen[email] {
				continue
			}
			seen[email] = true
			merged = append(merged, r)
		}
	}

	now := rs.clock.Now()

	// Local-hour match, grouped by local calendar date for the send-record
	// exclusion query.  Candidates near the date line can land on different
	// local dates within one run.
	byDate := make(map[string][]Recipient)
	for _, r := range merged {
		if !r.DigestEnabled || len(r.NeighborhoodIDs) == 0 {
			continue
		}
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			rs.log.Warnw("recipient has invalid timezone, skipping",
				"recipient", r.Key(), "tz", r.Timezone)
			continue
		}
		local := now.In(loc)
		if local.Hour() != rs.targetHour {
			continue
		}
		if err := ResolvePrimary(ctx, &r, rs.cities); err != nil {
			rs.log.Warnw("primary resolution failed, skipping",
				"recipient", r.Key(), "err", err)
			continue
		}
		date := local.Format("2006-01-02")
		byDate[date] = append(byDate[date], r)
	}

	var eligible []Recipient
	for date, candidates := range byDate {
		keys := make([]string, 0, len(candidates))
		for i := range candidates {
			keys = append(keys, candidates[i].Key())
		}
		sent, err := rs.sends.SentOn(ctx, keys, date, rs.digestType)
		if err != nil {
			return nil, err
		}
		for _, r := range candidates {
			if sent[r.Key()] {
				continue
			}
			eligible = append(eligible, r)
		}
	}

	rs.backfillReferrals(eligible)
	return eligible, nil
}

// ResolvePrimary pins PrimaryNeighborhoodID to a subscribed neighborhood:
// the explicit primary when it is subscribed, else a subscribed neighborhood
// in the recorded primary city, else the first subscription.  Shared by the
// scheduled resolver and the resend rebuild.
func ResolvePrimary(ctx context.Context, r *Recipient, cities NeighborhoodCities) error {
	if r.PrimaryNeighborhoodID != nil {
		for _, id := range r.NeighborhoodIDs {
			if id == *r.PrimaryNeighborhoodID {
				return nil
			}
		}
	}

	if r.PrimaryCity != "" {
		byID, err := cities.Cities(ctx, r.NeighborhoodIDs)
		if err != nil {
			return err
		}
		for _, id := range r.NeighborhoodIDs {
			if strings.EqualFold(byID[id], r.PrimaryCity) {
				r.PrimaryNeighborhoodID = &id
				return nil
			}
		}
	}

	r.PrimaryNeighborhoodID = &r.NeighborhoodIDs[0]
	return nil
}

// backfillReferrals generates and persists missing referral codes without
// blocking the run.  Failures are logged and forgotten; the next run retries.
func (rs *Resolver) backfillReferrals(recs []Recipient) {
	for _, r := range recs {
		if r.ReferralCode != "" {
			continue
		}
		r := r
		go func() {
			code := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rs.store.SetReferralCode(ctx, r.Source, r.ID, code); err != nil {
				rs.log.Warnw("referral backfill failed",
					"recipient", r.Key(), "err", err)
			}
		}()
	}
}
