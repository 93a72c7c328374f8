package repository

import (
	"context"
	"database/sql"
	"errors"
)

// PriceOverrideRepo reads the admin-configured individual-pricing
// table.  Rows are keyed by (option tag, day kind, base ticket id);
// the pricing engine derives the option tag from event flags.
type PriceOverrideRepo struct {
	db *sql.DB
}

// NewPriceOverrideRepo constructs a PriceOverrideRepo given a DB handle.
func NewPriceOverrideRepo(db *sql.DB) *PriceOverrideRepo {
	return &PriceOverrideRepo{db: db}
}

// Get returns the override price for the key.  Returns
// ErrPriceOverrideNotFound when no row matches; the caller treats
// that as a configuration error, not a booking failure.
func (r *PriceOverrideRepo) Get(ctx context.Context, optionTag, dayKind string, baseTicketID int64) (int, error) {
	var cost int
	err := r.db.QueryRowContext(ctx,
		`SELECT cost FROM price_overrides
		 WHERE option_tag = ? AND day_kind = ? AND base_ticket_id = ?`,
		optionTag, dayKind, baseTicketID).Scan(&cost)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPriceOverrideNotFound
	}
	if err != nil {
		return 0, err
	}
	return cost, nil
}
