package repository

import (
	"context"
	"database/sql"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// WaitlistRepo encapsulates database operations for waitlist
// entries left on sold-out performances.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo constructs a WaitlistRepo given a DB handle.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo {
	return &WaitlistRepo{db: db}
}

// Create inserts a waitlist entry and populates its ID.
func (r *WaitlistRepo) Create(ctx context.Context, w *model.WaitlistEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (user_id, schedule_event_id, name, phone) VALUES (?, ?, ?, ?)`,
		w.UserID, w.ScheduleEventID, w.Name, w.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = id
	return nil
}
