package recipient

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLStore adapts the package query helpers to the Store port.
type SQLStore struct {
	DB *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) AccountHolders(ctx context.Context) ([]Recipient, error) {
	return AccountHolders(ctx, s.DB)
}

func (s *SQLStore) Subscribers(ctx context.Context) ([]Recipient, error) {
	return Subscribers(ctx, s.DB)
}

func (s *SQLStore) SetReferralCode(ctx context.Context, src Source, id uint64, code string) error {
	return SetReferralCode(ctx, s.DB, src, id, code)
}

// ByID rebuilds one recipient from current preferences, for the resend path.
func (s *SQLStore) ByID(ctx context.Context, src Source, id uint64) (*Recipient, error) {
	return ByID(ctx, s.DB, src, id)
}
