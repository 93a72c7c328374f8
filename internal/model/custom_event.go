package model

import "time"

// CustomEvent records a birthday-party booking collected by the
// birthday dialog.  It shares the ticket status lifecycle: created
// when the dialog completes, then approved or rejected by an admin.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – Telegram user who placed the order.
//  Place          – venue kind, one of PlaceTheater / PlaceOffsite.
//  Address        – venue address when the party is offsite.
//  Date           – party date (yyyy-mm-dd as entered).
//  Time           – party start time (hh:mm as entered).
//  TheaterEventID – production chosen for the party.
//  Age            – age of the birthday child; fractional ages are
//                   allowed ("5,5" parses to 5.5).
//  Format         – show format chosen in the dialog.
//  QtyChild       – number of children attending.
//  QtyAdult       – number of adults attending.
//  ChildName      – name of the birthday child.
//  Name           – contact name of the ordering parent.
//  Phone          – normalized 10-digit contact phone.
//  Note           – free-form wishes.
//  Cost           – resolved price.
//  Status         – lifecycle status, shared with tickets.
//  CreatedAt      – creation timestamp.
type CustomEvent struct {
	ID             int64        // custom_events.id
	UserID         int64        // custom_events.user_id
	Place          string       // custom_events.place
	Address        string       // custom_events.address
	Date           string       // custom_events.date
	Time           string       // custom_events.time
	TheaterEventID int64        // custom_events.theater_event_id
	Age            float64      // custom_events.age
	Format         string       // custom_events.format
	QtyChild       int          // custom_events.qty_child
	QtyAdult       int          // custom_events.qty_adult
	ChildName      string       // custom_events.child_name
	Name           string       // custom_events.name
	Phone          string       // custom_events.phone
	Note           string       // custom_events.note
	Cost           int          // custom_events.cost
	Status         TicketStatus // custom_events.status
	CreatedAt      time.Time    // custom_events.created_at
}

// Venue kinds for CustomEvent.Place.
const (
	PlaceTheater = "THEATER"
	PlaceOffsite = "OFFSITE"
)
