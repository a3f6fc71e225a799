// internal/ads/repository.go
//
// Query helpers for the `ad` and `house_ad` tables.
//
// Context
// -------
// The active-ads query is the one genuinely dynamic piece of SQL in the
// pipeline: the date window is fixed, but the targeting disjunction grows an
// IN clause with the recipient's neighborhood set.  Squirrel keeps the
// placeholder bookkeeping out of the way.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package ads

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ErrNoHouseAd is returned when the promotional pool is empty.
var ErrNoHouseAd = errors.New("no house ad available")

// Repository wraps the shared DB pool for ad queries.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wires a Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ActiveFor returns paid ads whose validity window covers date and whose
// targeting reaches a recipient subscribed to neighborhoodIDs.
// Neighborhood-targeted ads sort ahead of takeovers, takeovers ahead of
// plain global, newest first within a band.
func (r *Repository) ActiveFor(ctx context.Context, neighborhoodIDs []uint64, date string) ([]Ad, error) {
	scope := sq.Or{
		sq.Eq{"targeting": []string{TargetGlobal.String(), TargetGlobalTakeover.String()}},
	}
	if len(neighborhoodIDs) > 0 {
		scope = append(scope, sq.And{
			sq.Eq{"targeting": TargetNeighborhood.String()},
			sq.Eq{"neighborhood_id": neighborhoodIDs},
		})
	}

	builder := sq.Select("id", "image_url", "headline", "click_url", "sponsor",
		"start_date", "end_date", "targeting", "neighborhood_id", "created_at").
		From("ad").
		Where(sq.LtOrEq{"start_date": date}).
		Where(sq.GtOrEq{"end_date": date}).
		Where(scope).
		OrderBy(
			`CASE targeting
               WHEN 'neighborhood'    THEN 0
               WHEN 'global_takeover' THEN 1
               ELSE 2
             END`,
			"created_at DESC",
		)

	q, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []Ad
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// RandomHouse picks one random house ad, excluding the reserved
// non-subscriber kind.
func (r *Repository) RandomHouse(ctx context.Context) (*HouseAd, error) {
	const q = `
        SELECT id, kind, image_url, headline, body, click_url
        FROM   house_ad
        WHERE  kind <> ?
        ORDER  BY RAND()
        LIMIT  1`
	var h HouseAd
	err := r.db.GetContext(ctx, &h, q, KindNonSubscriber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHouseAd
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// IncrementImpressions bumps the impression counter for the given paid ads.
// Best-effort: callers swallow the error beyond logging.
func (r *Repository) IncrementImpressions(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`
        UPDATE ad
        SET    impressions = impressions + 1
        WHERE  id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	return err
}
