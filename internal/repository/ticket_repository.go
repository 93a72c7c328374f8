package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// TicketRepo encapsulates database operations for tickets.  Status
// updates are guarded: the statement only succeeds when the row is
// still in the expected status, which is what makes admin approval
// callbacks safe to replay.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketColumns = `id, user_id, schedule_event_id, base_ticket_id, cost, status,
	name, phone, email, payment_id, created_at, updated_at`

func scanTicket(s rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var paymentID sql.NullString
	err := s.Scan(&t.ID, &t.UserID, &t.ScheduleEventID, &t.BaseTicketID, &t.Cost, &t.Status,
		&t.Name, &t.Phone, &t.Email, &paymentID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		t.PaymentID = &paymentID.String
	}
	return &t, nil
}

// Create inserts a ticket in CREATED status and populates its ID.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (user_id, schedule_event_id, base_ticket_id, cost, status, name, phone, email)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.ScheduleEventID, t.BaseTicketID, t.Cost, model.StatusCreated, t.Name, t.Phone, t.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	t.Status = model.StatusCreated
	return nil
}

// GetByID loads one ticket.  Returns ErrTicketNotFound when the id
// does not exist.
func (r *TicketRepo) GetByID(ctx context.Context, id int64) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// UpdateStatusFrom moves a ticket to a new status only if it is
// currently in one of the expected statuses.  Returns
// ErrStatusConflict when the row exists but is in a different status
// (e.g. a second admin already acted on it) and ErrTicketNotFound
// when the id does not exist.
func (r *TicketRepo) UpdateStatusFrom(ctx context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error {
	if len(from) == 0 {
		return errors.New("UpdateStatusFrom requires at least one expected status")
	}
	query := `UPDATE tickets SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (?`
	args := []any{to, id, from[0]}
	for _, s := range from[1:] {
		query += ",?"
		args = append(args, s)
	}
	query += ")"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTicketNotFound
			}
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// SetPaymentID stores the external payment identifier returned by
// the payment gateway.
func (r *TicketRepo) SetPaymentID(ctx context.Context, id int64, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET payment_id = ?, updated_at = NOW() WHERE id = ?`, paymentID, id)
	return err
}

// GetByPaymentID correlates a payment webhook back to a ticket.
func (r *TicketRepo) GetByPaymentID(ctx context.Context, paymentID string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE payment_id = ?`, paymentID)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// ListApprovedForScheduleEvent returns approved tickets for a
// performance, used by the day-before reminder pass.
func (r *TicketRepo) ListApprovedForScheduleEvent(ctx context.Context, scheduleEventID int64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE schedule_event_id = ? AND status = ?`,
		scheduleEventID, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
