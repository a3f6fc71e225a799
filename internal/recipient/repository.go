// internal/recipient/repository.go
//
// Query helpers for the `user` and `subscriber` tables.
//
// Context
// -------
// The resolver needs both populations with their subscribed-neighborhood
// links in a fixed order; the resend orchestrator needs one recipient
// rebuilt from current preferences.  Paused topics are stored as a JSON
// array column on both tables.
//
// These helpers accept a *sqlx.DB and perform parameterised queries in two
// round trips per population: base rows, then batched neighborhood links.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package recipient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a recipient ID is not present, is unverified,
// or is soft-deleted.
var ErrNotFound = errors.New("recipient not found")

// row is the shared scan target for both population tables.
type row struct {
	ID                    uint64         `db:"id"`
	Email                 string         `db:"email"`
	Timezone              string         `db:"timezone"`
	DigestEnabled         bool           `db:"digest_enabled"`
	UnsubscribeToken      string         `db:"unsubscribe_token"`
	ReferralCode          sql.NullString `db:"referral_code"`
	PrimaryNeighborhoodID sql.NullInt64  `db:"primary_neighborhood_id"`
	PrimaryCity           sql.NullString `db:"primary_city"`
	PausedTopics          []byte         `db:"paused_topics"`
}

func (r *row) toRecipient(src Source) Recipient {
	rec := Recipient{
		Source:           src,
		ID:               r.ID,
		Email:            r.Email,
		Timezone:         r.Timezone,
		DigestEnabled:    r.DigestEnabled,
		UnsubscribeToken: r.UnsubscribeToken,
		ReferralCode:     r.ReferralCode.String,
		PrimaryCity:      r.PrimaryCity.String,
	}
	if r.PrimaryNeighborhoodID.Valid {
		id := uint64(r.PrimaryNeighborhoodID.Int64)
		rec.PrimaryNeighborhoodID = &id
	}
	if len(r.PausedTopics) > 0 {
		// Malformed JSON degrades to "nothing paused" rather than dropping
		// the recipient from the run.
		_ = json.Unmarshal(r.PausedTopics, &rec.PausedTopics)
	}
	return rec
}

const userCols = `id, email, timezone, digest_enabled, unsubscribe_token,
               referral_code, primary_neighborhood_id, primary_city, paused_topics`

// AccountHolders returns every linked-account recipient with digests enabled.
// Neighborhood links are attached in subscription order.
func AccountHolders(ctx context.Context, db *sqlx.DB) ([]Recipient, error) {
	const q = `
        SELECT ` + userCols + `
        FROM   user
        WHERE  digest_enabled = TRUE
          AND  deleted_at IS NULL`
	return loadPopulation(ctx, db, q, SourceAccount)
}

// Subscribers returns every anonymous subscription that is verified and has
// digests enabled.
func Subscribers(ctx context.Context, db *sqlx.DB) ([]Recipient, error) {
	const q = `
        SELECT ` + userCols + `
        FROM   subscriber
        WHERE  digest_enabled = TRUE
          AND  verified_at IS NOT NULL
          AND  deleted_at  IS NULL`
	return loadPopulation(ctx, db, q, SourceSubscription)
}

// ByID rebuilds one recipient from current preferences.  Used by the resend
// orchestrator after a preference-change event.
func ByID(ctx context.Context, db *sqlx.DB, src Source, id uint64) (*Recipient, error) {
	var q string
	switch src {
	case SourceAccount:
		q = `
        SELECT ` + userCols + `
        FROM   user
        WHERE  id = ? AND deleted_at IS NULL
        LIMIT  1`
	case SourceSubscription:
		q = `
        SELECT ` + userCols + `
        FROM   subscriber
        WHERE  id = ? AND verified_at IS NOT NULL AND deleted_at IS NULL
        LIMIT  1`
	default:
		return nil, fmt.Errorf("recipient: unhandled source %v", src)
	}

	var r row
	if err := db.GetContext(ctx, &r, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	recs := []Recipient{r.toRecipient(src)}
	if err := attachNeighborhoods(ctx, db, src, recs); err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// SetReferralCode persists a lazily generated referral code.  Best-effort:
// callers ignore the error beyond logging.
func SetReferralCode(ctx context.Context, db *sqlx.DB, src Source, id uint64, code string) error {
	table := "user"
	if src == SourceSubscription {
		table = "subscriber"
	}
	q := `UPDATE ` + table + ` SET referral_code = ? WHERE id = ? AND referral_code IS NULL`
	_, err := db.ExecContext(ctx, q, code, id)
	return err
}

/*──────────────────────────── internals ───────────────────────────────────*/

func loadPopulation(ctx context.Context, db *sqlx.DB, q string, src Source) ([]Recipient, error) {
	var rows []row
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	recs := make([]Recipient, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].toRecipient(src))
	}
	if err := attachNeighborhoods(ctx, db, src, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

type link struct {
	RecipientID    uint64 `db:"recipient_id"`
	NeighborhoodID uint64 `db:"neighborhood_id"`
}

// attachNeighborhoods fills NeighborhoodIDs for every recipient in recs with
// one batched query, preserving each recipient's subscription order.
func attachNeighborhoods(ctx context.Context, db *sqlx.DB, src Source, recs []Recipient) error {
	if len(recs) == 0 {
		return nil
	}

	table := "user_neighborhood"
	col := "user_id"
	if src == SourceSubscription {
		table = "subscriber_neighborhood"
		col = "subscriber_id"
	}

	ids := make([]uint64, 0, len(recs))
	for i := range recs {
		ids = append(ids, recs[i].ID)
	}

	q, args, err := sqlx.In(`
        SELECT `+col+` AS recipient_id, neighborhood_id
        FROM   `+table+`
        WHERE  `+col+` IN (?)
        ORDER  BY `+col+`, position`, ids)
	if err != nil {
		return err
	}

	var links []link
	if err := db.SelectContext(ctx, &links, db.Rebind(q), args...); err != nil {
		return err
	}

	byID := make(map[uint64][]uint64, len(recs))
	for _, l := range links {
		byID[l.RecipientID] = append(byID[l.RecipientID], l.NeighborhoodID)
	}
	for i := range recs {
		recs[i].NeighborhoodIDs = byID[recs[i].ID]
	}
	return nil
}
