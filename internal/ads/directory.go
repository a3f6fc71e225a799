package ads

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
)

// SQLDirectory adapts the neighborhood query helpers to the Directory port.
type SQLDirectory struct {
	DB *sqlx.DB
}

var _ Directory = (*SQLDirectory)(nil)

func (d *SQLDirectory) ActiveCount(ctx context.Context) (int, error) {
	return neighborhood.ActiveCount(ctx, d.DB)
}

// DiscoverURL picks a random live neighborhood the recipient is not already
// subscribed to and returns its landing path.
func (d *SQLDirectory) DiscoverURL(ctx context.Context, excludeIDs []uint64) (string, error) {
	rec, err := neighborhood.Discover(ctx, d.DB, excludeIDs)
	if err != nil {
		return "", err
	}
	return "/neighborhoods/" + rec.Slug, nil
}
