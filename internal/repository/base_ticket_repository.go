package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// BaseTicketRepo encapsulates database operations for base_tickets
// (ticket types).  Prices and seat-consumption counts are
// admin-maintained reference data.
type BaseTicketRepo struct {
	db *sql.DB
}

// NewBaseTicketRepo constructs a BaseTicketRepo given a DB handle.
func NewBaseTicketRepo(db *sql.DB) *BaseTicketRepo {
	return &BaseTicketRepo{db: db}
}

const baseTicketColumns = `id, name, cost, cost_in_period, period_start, period_end, qty_child, qty_adult`

func scanBaseTicket(s rowScanner) (*model.BaseTicket, error) {
	var bt model.BaseTicket
	var start, end sql.NullTime
	err := s.Scan(&bt.ID, &bt.Name, &bt.Cost, &bt.CostInPeriod, &start, &end, &bt.QtyChild, &bt.QtyAdult)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		bt.PeriodStart = &start.Time
	}
	if end.Valid {
		bt.PeriodEnd = &end.Time
	}
	return &bt, nil
}

// GetByID loads one ticket type.  Returns ErrBaseTicketNotFound when
// the id does not exist.
func (r *BaseTicketRepo) GetByID(ctx context.Context, id int64) (*model.BaseTicket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+baseTicketColumns+` FROM base_tickets WHERE id = ?`, id)
	bt, err := scanBaseTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBaseTicketNotFound
	}
	return bt, err
}

// ListAll returns every ticket type ordered by id, for the
// ticket-choice keyboard.
func (r *BaseTicketRepo) ListAll(ctx context.Context) ([]model.BaseTicket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+baseTicketColumns+` FROM base_tickets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BaseTicket
	for rows.Next() {
		bt, err := scanBaseTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bt)
	}
	return out, rows.Err()
}
