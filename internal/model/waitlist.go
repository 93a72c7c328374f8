package model

import "time"

// WaitlistEntry is left by a user when a performance is sold out.
// Entries are exported to the spreadsheet queue; admins contact the
// user if seats free up.
type WaitlistEntry struct {
	ID              int64     // waitlist.id
	UserID          int64     // waitlist.user_id
	ScheduleEventID int64     // waitlist.schedule_event_id
	Name            string    // waitlist.name
	Phone           string    // waitlist.phone
	CreatedAt       time.Time // waitlist.created_at
}
