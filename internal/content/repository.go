// internal/content/repository.go
//
// Query helpers for the `article` and `neighborhood_brief` tables.
//
// Context
// -------
// Story fetches use an escalating lookback: a busy neighborhood fills its
// section from the last 24 hours, a quiet one reaches back as far as a week.
// The first window yielding any rows wins, so a sleepy satellite still gets
// a section instead of an empty block.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package content

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Lookback windows, tried in order.
var lookbackWindows = []time.Duration{
	24 * time.Hour,
	48 * time.Hour,
	168 * time.Hour,
}

// Repository wraps the shared DB pool for content queries.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wires a Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const storyCols = `id, slug, headline, preview, image_url, category, url,
               location, teaser, published_at`

// WithLookback returns up to limit published stories for the given content
// IDs (combo neighborhoods pre-expanded by the caller), trying each lookback
// window in turn and stopping at the first that yields rows.
func (r *Repository) WithLookback(ctx context.Context, contentIDs []uint64, now time.Time, limit int) ([]Story, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}
	for _, window := range lookbackWindows {
		stories, err := r.publishedSince(ctx, contentIDs, now.Add(-window), limit)
		if err != nil {
			return nil, err
		}
		if len(stories) > 0 {
			return stories, nil
		}
	}
	return nil, nil
}

func (r *Repository) publishedSince(ctx context.Context, contentIDs []uint64, since time.Time, limit int) ([]Story, error) {
	q, args, err := sqlx.In(`
        SELECT `+storyCols+`
        FROM   article
        WHERE  neighborhood_id IN (?)
          AND  status = 'published'
          AND  published_at >= ?
        ORDER  BY published_at DESC
        LIMIT  ?`, contentIDs, since, limit)
	if err != nil {
		return nil, err
	}
	var rows []Story
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSummary looks for a daily-summary article directly, regardless of
// lookback, for the given local date.  Returns nil, nil when absent.
func (r *Repository) FindSummary(ctx context.Context, contentIDs []uint64, date string) (*Story, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`
        SELECT `+storyCols+`
        FROM   article
        WHERE  neighborhood_id IN (?)
          AND  status   = 'published'
          AND  category = ?
          AND  DATE(published_at) = ?
        ORDER  BY published_at DESC
        LIMIT  1`, contentIDs, SummaryCategory, date)
	if err != nil {
		return nil, err
	}
	var s Story
	err = r.db.GetContext(ctx, &s, r.db.Rebind(q), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// BySlug fetches one article by slug.  Returns nil, nil when absent.
func (r *Repository) BySlug(ctx context.Context, slug string) (*Story, error) {
	const q = `
        SELECT ` + storyCols + `
        FROM   article
        WHERE  slug = ?
        LIMIT  1`
	var s Story
	err := r.db.GetContext(ctx, &s, q, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Latest returns the rolling brief for a neighborhood.  Returns nil, nil
// when the neighborhood has no brief yet.
func (r *Repository) Latest(ctx context.Context, neighborhoodID uint64) (*Brief, error) {
	const q = `
        SELECT neighborhood_id, headline, body, updated_at
        FROM   neighborhood_brief
        WHERE  neighborhood_id = ?
        LIMIT  1`
	var b Brief
	err := r.db.GetContext(ctx, &b, q, neighborhoodID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertSynthesized writes a brief-derived article row.  The slug carries
// the idempotency: a duplicate insert for the same slug is a no-op, so a
// lost race with a parallel worker still converges on one row.
func (r *Repository) InsertSynthesized(ctx context.Context, neighborhoodID uint64, s *Story) error {
	const q = `
        INSERT INTO article
               (neighborhood_id, slug, headline, preview, category, url,
                location, status, published_at, synthesized)
        VALUES (?, ?, ?, ?, ?, ?, ?, 'published', ?, TRUE)
        ON DUPLICATE KEY UPDATE id = id`
	_, err := r.db.ExecContext(ctx, q,
		neighborhoodID, s.Slug, s.Headline, s.Preview, s.Category, s.URL,
		s.Location, s.PublishedAt)
	return err
}
