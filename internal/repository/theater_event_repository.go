package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// TheaterEventRepo encapsulates database operations for
// theater_events.  Productions are admin-maintained reference data;
// the bot only reads them.
type TheaterEventRepo struct {
	db *sql.DB
}

// NewTheaterEventRepo constructs a TheaterEventRepo given a DB handle.
func NewTheaterEventRepo(db *sql.DB) *TheaterEventRepo {
	return &TheaterEventRepo{db: db}
}

const theaterEventColumns = `id, name, premiere, min_age_child, max_age_child,
	duration_min, allow_birthdays, max_birthday_guests, individual_pricing, category`

// GetByID loads one production.  Returns ErrTheaterEventNotFound
// when the id does not exist.
func (r *TheaterEventRepo) GetByID(ctx context.Context, id int64) (*model.TheaterEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+theaterEventColumns+` FROM theater_events WHERE id = ?`, id)
	return scanTheaterEvent(row)
}

// ListForBirthdays returns productions against which birthday
// parties may be booked, ordered by name.
func (r *TheaterEventRepo) ListForBirthdays(ctx context.Context) ([]model.TheaterEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+theaterEventColumns+` FROM theater_events WHERE allow_birthdays = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []model.TheaterEvent
	for rows.Next() {
		ev, err := scanTheaterEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(s rowScanner, ev *model.TheaterEvent) error {
	return s.Scan(&ev.ID, &ev.Name, &ev.Premiere, &ev.MinAgeChild, &ev.MaxAgeChild,
		&ev.DurationMin, &ev.AllowBirthdays, &ev.MaxBirthdayGuests,
		&ev.IndividualPricing, &ev.Category)
}

func scanTheaterEvent(row *sql.Row) (*model.TheaterEvent, error) {
	var ev model.TheaterEvent
	if err := scanInto(row, &ev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func scanTheaterEventRows(rows *sql.Rows) (*model.TheaterEvent, error) {
	var ev model.TheaterEvent
	if err := scanInto(rows, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
