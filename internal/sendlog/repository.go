// internal/sendlog/repository.go
//
// Query helpers for the `send_log` and `rate_log` tables.
//
// Context
// -------
// Three callers share this repository: the resolver batch-checks today's
// send records, the sender inserts them, and the rate limiter counts both
// tables.  The resend path uses Upsert so a same-day replace converges to
// one row per (recipient, date, type) even when it races the scheduled run.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package sendlog

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository wraps the shared DB pool for send-log access.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wires a Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SentOn returns, for the given recipient keys, which already have a send
// record for (date, digestType).  One batched query.
func (r *Repository) SentOn(ctx context.Context, keys []string, date, digestType string) (map[string]bool, error) {
	if len(keys) == 0 {
		return map[string]bool{}, nil
	}
	q, args, err := sqlx.In(`
        SELECT recipient_key
        FROM   send_log
        WHERE  recipient_key IN (?)
          AND  send_date   = ?
          AND  digest_type = ?`, keys, date, digestType)
	if err != nil {
		return nil, err
	}
	var hit []string
	if err := r.db.SelectContext(ctx, &hit, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(hit))
	for _, k := range hit {
		out[k] = true
	}
	return out, nil
}

// Insert writes a new send record.  The unique (recipient_key, send_date,
// digest_type) index makes a duplicate scheduled send fail loudly instead of
// silently doubling up.
func (r *Repository) Insert(ctx context.Context, rec *SendRecord) error {
	const q = `
        INSERT INTO send_log
               (recipient_key, send_date, digest_type, ` + "`trigger`" + `,
                story_count, neighborhood_count, has_header_ad, has_native_ad,
                correlation_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		rec.RecipientKey, rec.SendDate, rec.DigestType, rec.Trigger,
		rec.StoryCount, rec.NeighborhoodCount, rec.HasHeaderAd, rec.HasNativeAd,
		rec.CorrelationID)
	return err
}

// Upsert writes a send record, replacing any existing row for the same
// (recipient_key, send_date, digest_type).  The resend path uses this so a
// same-day re-send converges to one row whichever write lands last, with the
// trigger column recording the winner.
func (r *Repository) Upsert(ctx context.Context, rec *SendRecord) error {
	const q = `
        INSERT INTO send_log
               (recipient_key, send_date, digest_type, ` + "`trigger`" + `,
                story_count, neighborhood_count, has_header_ad, has_native_ad,
                correlation_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
               ` + "`trigger`" + `    = VALUES(` + "`trigger`" + `),
               story_count        = VALUES(story_count),
               neighborhood_count = VALUES(neighborhood_count),
               has_header_ad      = VALUES(has_header_ad),
               has_native_ad      = VALUES(has_native_ad),
               correlation_id     = VALUES(correlation_id)`
	_, err := r.db.ExecContext(ctx, q,
		rec.RecipientKey, rec.SendDate, rec.DigestType, rec.Trigger,
		rec.StoryCount, rec.NeighborhoodCount, rec.HasHeaderAd, rec.HasNativeAd,
		rec.CorrelationID)
	return err
}

// CountSends returns the number of send records for one recipient on one
// date across *all* digest types.  Feeds the global daily cap.
func (r *Repository) CountSends(ctx context.Context, key, date string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   send_log
        WHERE  recipient_key = ?
          AND  send_date     = ?`
	var n int
	err := r.db.GetContext(ctx, &n, q, key, date)
	return n, err
}

//
// Rate log
//

// AppendRate records one on-demand attempt.  Append-only; rows are never
// mutated.
func (r *Repository) AppendRate(ctx context.Context, key string, trigger Trigger, date string) error {
	const q = `
        INSERT INTO rate_log (recipient_key, ` + "`trigger`" + `, event_date)
        VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, key, trigger, date)
	return err
}

// CountRate returns the number of on-demand attempts for one recipient on
// one date, across all resend triggers.  Feeds the per-trigger daily cap.
func (r *Repository) CountRate(ctx context.Context, key, date string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   rate_log
        WHERE  recipient_key = ?
          AND  event_date    = ?`
	var n int
	err := r.db.GetContext(ctx, &n, q, key, date)
	return n, err
}
