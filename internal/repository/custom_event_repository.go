package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// CustomEventRepo encapsulates database operations for birthday
// bookings (custom_events).  It mirrors TicketRepo, including the
// guarded status update used by admin approval callbacks.
type CustomEventRepo struct {
	db *sql.DB
}

// NewCustomEventRepo constructs a CustomEventRepo given a DB handle.
func NewCustomEventRepo(db *sql.DB) *CustomEventRepo {
	return &CustomEventRepo{db: db}
}

const customEventColumns = `id, user_id, place, address, date, time, theater_event_id,
	age, format, qty_child, qty_adult, child_name, name, phone, note, cost, status, created_at`

func scanCustomEvent(s rowScanner) (*model.CustomEvent, error) {
	var ce model.CustomEvent
	err := s.Scan(&ce.ID, &ce.UserID, &ce.Place, &ce.Address, &ce.Date, &ce.Time,
		&ce.TheaterEventID, &ce.Age, &ce.Format, &ce.QtyChild, &ce.QtyAdult,
		&ce.ChildName, &ce.Name, &ce.Phone, &ce.Note, &ce.Cost, &ce.Status, &ce.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ce, nil
}

// Create inserts a birthday booking in CREATED status and populates
// its ID.
func (r *CustomEventRepo) Create(ctx context.Context, ce *model.CustomEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_events (user_id, place, address, date, time, theater_event_id,
		   age, format, qty_child, qty_adult, child_name, name, phone, note, cost, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ce.UserID, ce.Place, ce.Address, ce.Date, ce.Time, ce.TheaterEventID,
		ce.Age, ce.Format, ce.QtyChild, ce.QtyAdult, ce.ChildName, ce.Name,
		ce.Phone, ce.Note, ce.Cost, model.StatusCreated)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ce.ID = id
	ce.Status = model.StatusCreated
	return nil
}

// GetByID loads one birthday booking.  Returns
// ErrCustomEventNotFound when the id does not exist.
func (r *CustomEventRepo) GetByID(ctx context.Context, id int64) (*model.CustomEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customEventColumns+` FROM custom_events WHERE id = ?`, id)
	ce, err := scanCustomEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomEventNotFound
	}
	return ce, err
}

// UpdateStatusFrom moves a booking to a new status only if it is
// currently in one of the expected statuses; see
// TicketRepo.UpdateStatusFrom for the replay-safety rationale.
func (r *CustomEventRepo) UpdateStatusFrom(ctx context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error {
	if len(from) == 0 {
		return errors.New("UpdateStatusFrom requires at least one expected status")
	}
	query := `UPDATE custom_events SET status = ? WHERE id = ? AND status IN (?`
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
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM custom_events WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomEventNotFound
			}
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// LatestApprovedForUser returns the user's most recent approved
// birthday booking, used by the pay command to know what to charge.
// Returns ErrCustomEventNotFound when the user has none.
func (r *CustomEventRepo) LatestApprovedForUser(ctx context.Context, userID int64) (*model.CustomEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customEventColumns+` FROM custom_events
		 WHERE user_id = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID, model.StatusApproved)
	ce, err := scanCustomEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomEventNotFound
	}
	return ce, err
}
