package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// ScheduleEventSummary is a listing row joining a performance with
// its production name, used by the afisha and date keyboards.
type ScheduleEventSummary struct {
	model.ScheduleEvent
	TheaterEventName string
}

// ScheduleEventRepo encapsulates database operations for
// schedule_events, including the atomic seat-count adjustments that
// are the only shared-mutable resource in the system.
type ScheduleEventRepo struct {
	db *sql.DB
}

// NewScheduleEventRepo constructs a ScheduleEventRepo given a DB handle.
func NewScheduleEventRepo(db *sql.DB) *ScheduleEventRepo {
	return &ScheduleEventRepo{db: db}
}

const scheduleEventColumns = `id, theater_event_id, starts_at, qty_child, qty_adult,
	qty_child_confirmed, qty_adult_confirmed, qty_child_nonconfirmed, qty_adult_nonconfirmed,
	gift_flag, santa_flag, tree_flag, weekday_override`

func scanScheduleEvent(s rowScanner) (*model.ScheduleEvent, error) {
	var ev model.ScheduleEvent
	var override sql.NullBool
	err := s.Scan(&ev.ID, &ev.TheaterEventID, &ev.StartsAt, &ev.QtyChild, &ev.QtyAdult,
		&ev.QtyChildConfirmed, &ev.QtyAdultConfirmed, &ev.QtyChildNonConfirmed, &ev.QtyAdultNonConfirmed,
		&ev.GiftFlag, &ev.SantaFlag, &ev.TreeFlag, &override)
	if err != nil {
		return nil, err
	}
	if override.Valid {
		ev.WeekdayOverride = &override.Bool
	}
	return &ev, nil
}

// GetByID loads one performance with current seat counters.  Returns
// ErrScheduleEventNotFound when the id does not exist.
func (r *ScheduleEventRepo) GetByID(ctx context.Context, id int64) (*model.ScheduleEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduleEventColumns+` FROM schedule_events WHERE id = ?`, id)
	ev, err := scanScheduleEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleEventNotFound
	}
	return ev, err
}

// ListForMonth returns performances within the given calendar month,
// joined with production names and ordered by start time.
func (r *ScheduleEventRepo) ListForMonth(ctx context.Context, year int, month time.Month) ([]ScheduleEventSummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return r.listBetween(ctx, from, to)
}

// ListOnDate returns performances on a single calendar date.
func (r *ScheduleEventRepo) ListOnDate(ctx context.Context, date time.Time) ([]ScheduleEventSummary, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return r.listBetween(ctx, from, from.AddDate(0, 0, 1))
}

func (r *ScheduleEventRepo) listBetween(ctx context.Context, from, to time.Time) ([]ScheduleEventSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT se.`+scheduleEventJoinColumns+`, te.name
		 FROM schedule_events se
		 JOIN theater_events te ON te.id = se.theater_event_id
		 WHERE se.starts_at >= ? AND se.starts_at < ?
		 ORDER BY se.starts_at`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduleEventSummary
	for rows.Next() {
		var s ScheduleEventSummary
		var override sql.NullBool
		err := rows.Scan(&s.ID, &s.TheaterEventID, &s.StartsAt, &s.QtyChild, &s.QtyAdult,
			&s.QtyChildConfirmed, &s.QtyAdultConfirmed, &s.QtyChildNonConfirmed, &s.QtyAdultNonConfirmed,
			&s.GiftFlag, &s.SantaFlag, &s.TreeFlag, &override, &s.TheaterEventName)
		if err != nil {
			return nil, err
		}
		if override.Valid {
			s.WeekdayOverride = &override.Bool
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scheduleEventJoinColumns is scheduleEventColumns with the table
// alias spliced in for the join query.
const scheduleEventJoinColumns = `id, se.theater_event_id, se.starts_at, se.qty_child, se.qty_adult,
	se.qty_child_confirmed, se.qty_adult_confirmed, se.qty_child_nonconfirmed, se.qty_adult_nonconfirmed,
	se.gift_flag, se.santa_flag, se.tree_flag, se.weekday_override`

// AdjustSeats applies a delta to the nonconfirmed seat counters for
// both age groups in a single conditional UPDATE.  Nonconfirmed is
// the only counter mutated on its own: approval moves seats between
// counters via PromoteSeats.  The statement both applies the delta
// and verifies the seat invariants against the row's current values,
// so two users racing for the last seat cannot both succeed.  When
// the condition fails no row is updated and ErrCapacityExceeded is
// returned; ErrScheduleEventNotFound is returned when the id does
// not exist at all.
func (r *ScheduleEventRepo) AdjustSeats(ctx context.Context, id int64, deltaChild, deltaAdult int) error {
	// The WHERE clause re-checks the invariant with the row's
	// current values: the nonconfirmed counter must stay >= 0 and
	// the sum of confirmed and nonconfirmed seats must stay <= the
	// total, for both age groups.
	res, err := r.db.ExecContext(ctx,
		`UPDATE schedule_events
		 SET qty_child_nonconfirmed = qty_child_nonconfirmed + ?,
		     qty_adult_nonconfirmed = qty_adult_nonconfirmed + ?
		 WHERE id = ?
		   AND qty_child_nonconfirmed + ? >= 0
		   AND qty_child_confirmed + qty_child_nonconfirmed + ? <= qty_child
		   AND qty_adult_nonconfirmed + ? >= 0
		   AND qty_adult_confirmed + qty_adult_nonconfirmed + ? <= qty_adult`,
		deltaChild, deltaAdult, id,
		deltaChild, deltaChild, deltaAdult, deltaAdult)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM schedule_events WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrScheduleEventNotFound
			}
			return err
		}
		return ErrCapacityExceeded
	}
	return nil
}

// PromoteSeats moves seats from the nonconfirmed counter to the
// confirmed counter when an admin approves a booking.  The total
// occupancy does not change, so the only guard is that enough
// nonconfirmed seats are actually held.
func (r *ScheduleEventRepo) PromoteSeats(ctx context.Context, id int64, child, adult int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE schedule_events
		 SET qty_child_nonconfirmed = qty_child_nonconfirmed - ?,
		     qty_child_confirmed = qty_child_confirmed + ?,
		     qty_adult_nonconfirmed = qty_adult_nonconfirmed - ?,
		     qty_adult_confirmed = qty_adult_confirmed + ?
		 WHERE id = ? AND qty_child_nonconfirmed >= ? AND qty_adult_nonconfirmed >= ?`,
		child, child, adult, adult, id, child, adult)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapacityExceeded
	}
	return nil
}
