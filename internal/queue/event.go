// Package queue defines the spreadsheet task messages published to
// the message broker and the publisher/consumer around them.  The
// spreadsheet API is the slowest and least reliable dependency, so
// writes to it are decoupled from the booking flow: tasks are
// published fire-and-forget with at-least-once delivery, a separate
// worker applies them with retry, and terminal failures land on a
// dead-letter queue surfaced to an operator.
package queue

import "time"

// Task kinds understood by the spreadsheet worker.
const (
	TaskUpdateTicketStatus      = "update_ticket_status"
	TaskUpdateCustomEventStatus = "update_custom_event_status"
	TaskWriteReservation        = "write_reservation"
	TaskWriteBirthdayOrder      = "write_birthday_order"
	TaskWriteWaitlistEntry      = "write_waitlist_entry"
)

// SheetTask is one unit of spreadsheet work.  Only the fields
// relevant to the Kind are populated.  Consumers must be idempotent:
// at-least-once delivery means the same task may arrive twice.
type SheetTask struct {
	Kind            string    `json:"kind"`
	TicketID        int64     `json:"ticket_id,omitempty"`
	CustomEventID   int64     `json:"custom_event_id,omitempty"`
	WaitlistID      int64     `json:"waitlist_id,omitempty"`
	UserID          int64     `json:"user_id,omitempty"`
	ScheduleEventID int64     `json:"schedule_event_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	Name            string    `json:"name,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Cost            int       `json:"cost,omitempty"`
	EnqueuedAt      time.Time `json:"enqueued_at"`
}
