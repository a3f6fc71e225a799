// internal/neighborhood/repository.go
//
// Query helpers for the `neighborhood` and `neighborhood_component` tables.
//
// Context
// -------
// Every digest section hangs off a neighborhood row: coordinates feed the
// forecast client, city feeds the climate-normal lookup, and the combo flag
// decides whether content queries fan out to component IDs.  These helpers
// accept a *sqlx.DB and perform simple parameterised queries; the Cache in
// cache.go wraps them for batch runs.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package neighborhood

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when an ID is not present in the neighborhood table.
var ErrNotFound = errors.New("neighborhood not found")

const selectCols = `id, slug, name, city, country, lat, lon, timezone,
               is_combo, retired_at, created_at`

// ByID fetches a single neighborhood row that is not retired.
func ByID(ctx context.Context, db *sqlx.DB, id uint64) (*Record, error) {
	const q = `
        SELECT ` + selectCols + `
        FROM   neighborhood
        WHERE  id = ?
          AND  retired_at IS NULL
        LIMIT  1`
	var rec Record
	err := db.GetContext(ctx, &rec, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("neighborhood %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByIDs fetches several neighborhoods in one round trip.  Missing or retired
// IDs are silently absent from the result; callers that care should compare
// lengths.
func ByIDs(ctx context.Context, db *sqlx.DB, ids []uint64) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`
        SELECT `+selectCols+`
        FROM   neighborhood
        WHERE  id IN (?)
          AND  retired_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	var rows []Record
	if err := db.SelectContext(ctx, &rows, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// ContentIDs expands a neighborhood for content queries: a combo returns its
// component IDs, everything else returns itself.  A combo with no linked
// components falls back to its own ID so a misconfigured row still yields a
// queryable section.
func ContentIDs(ctx context.Context, db *sqlx.DB, rec *Record) ([]uint64, error) {
	if !rec.IsCombo {
		return []uint64{rec.ID}, nil
	}

	const q = `
        SELECT component_id
        FROM   neighborhood_component
        WHERE  combo_id = ?
        ORDER  BY component_id`
	var ids []uint64
	if err := db.SelectContext(ctx, &ids, q, rec.ID); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []uint64{rec.ID}, nil
	}
	return ids, nil
}

// CityLookup adapts ByIDs to the ID-to-city map the recipient resolver wants
// for its primary-city fallback.
type CityLookup struct {
	DB *sqlx.DB
}

// Cities returns city names keyed by neighborhood ID.
func (c *CityLookup) Cities(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	rows, err := ByIDs(ctx, c.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.City
	}
	return out, nil
}

// ActiveCount returns the number of live neighborhoods.  Used by the house-ad
// placeholder resolver.
func ActiveCount(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `
        SELECT COUNT(*) FROM neighborhood WHERE retired_at IS NULL`)
	return n, err
}

// Discover picks one random live neighborhood outside excludeIDs, for the
// "discover a neighborhood" house ad.  Returns ErrNotFound when every live
// neighborhood is excluded.
func Discover(ctx context.Context, db *sqlx.DB, excludeIDs []uint64) (*Record, error) {
	q := `
        SELECT ` + selectCols + `
        FROM   neighborhood
        WHERE  retired_at IS NULL`
	var args []any
	if len(excludeIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND id NOT IN (?)`, excludeIDs)
		if err != nil {
			return nil, err
		}
		q += in
		args = inArgs
	}
	q += `
        ORDER  BY RAND()
        LIMIT  1`

	var rec Record
	err := db.GetContext(ctx, &rec, db.Rebind(q), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
