package model

import "time"

// TicketStatus is the lifecycle state of a purchase.  The normal
// path is Created -> Paid -> Approved.  An admin may reject a
// Created or Paid ticket.  Canceled, Refunded, Transferred and
// Postponed are manual operations-side overrides reachable from any
// state; Transferred and Postponed re-enter active use, the rest are
// terminal.
type TicketStatus string

const (
	StatusCreated     TicketStatus = "CREATED"
	StatusPaid        TicketStatus = "PAID"
	StatusApproved    TicketStatus = "APPROVED"
	StatusRejected    TicketStatus = "REJECTED"
	StatusCanceled    TicketStatus = "CANCELED"
	StatusRefunded    TicketStatus = "REFUNDED"
	StatusTransferred TicketStatus = "TRANSFERRED"
	StatusPostponed   TicketStatus = "POSTPONED"
)

// manualStatuses are reachable from any state via explicit
// operations action, never via the conversation flow.
var manualStatuses = map[TicketStatus]bool{
	StatusCanceled:    true,
	StatusRefunded:    true,
	StatusTransferred: true,
	StatusPostponed:   true,
}

// transitions lists the legal flow-driven next states per state.
var transitions = map[TicketStatus][]TicketStatus{
	StatusCreated:     {StatusPaid, StatusApproved, StatusRejected},
	StatusPaid:        {StatusApproved, StatusRejected},
	StatusTransferred: {StatusPaid, StatusApproved, StatusRejected},
	StatusPostponed:   {StatusPaid, StatusApproved, StatusRejected},
}

// ValidTransition reports whether moving a ticket from one status to
// another is legal.  Manual override statuses are always reachable.
func ValidTransition(from, to TicketStatus) bool {
	if manualStatuses[to] {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further flow-driven transition leaves
// the status.  Transferred and Postponed are not terminal: they
// re-enter active use.
func (s TicketStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCanceled, StatusRefunded:
		return true
	}
	return false
}

// Ticket records a purchase made through the booking dialog.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – Telegram user who bought the ticket.
//  ScheduleEventID – performance the ticket is for.
//  BaseTicketID    – ticket type purchased.
//  Cost            – price resolved at purchase time.
//  Status          – lifecycle status, see TicketStatus.
//  Name            – contact name supplied in the dialog.
//  Phone           – normalized 10-digit contact phone.
//  Email           – payer email for the payment receipt.
//  PaymentID       – external payment identifier, if a payment was
//                    created (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last status change timestamp.
type Ticket struct {
	ID              int64        // tickets.id
	UserID          int64        // tickets.user_id
	ScheduleEventID int64        // tickets.schedule_event_id
	BaseTicketID    int64        // tickets.base_ticket_id
	Cost            int          // tickets.cost
	Status          TicketStatus // tickets.status
	Name            string       // tickets.name
	Phone           string       // tickets.phone
	Email           string       // tickets.email
	PaymentID       *string      // tickets.payment_id (nullable)
	CreatedAt       time.Time    // tickets.created_at
	UpdatedAt       time.Time    // tickets.updated_at
}
