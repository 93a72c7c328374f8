// Package repository defines error values that are reused across
// multiple repositories.  These sentinel values allow higher layers
// such as the bot handlers to distinguish between failure scenarios.
// ErrCapacityExceeded in particular signals that a seat-count
// adjustment would violate the seat invariants and the caller must
// return the user to availability selection instead of failing.
package repository

import "errors"

// ErrTheaterEventNotFound is returned when a theater event id does
// not exist.
var ErrTheaterEventNotFound = errors.New("theater event not found")

// ErrScheduleEventNotFound is returned when a schedule event id does
// not exist.
var ErrScheduleEventNotFound = errors.New("schedule event not found")

// ErrBaseTicketNotFound is returned when a base ticket id does not
// exist.
var ErrBaseTicketNotFound = errors.New("base ticket not found")

// ErrTicketNotFound is returned when a ticket id does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrCustomEventNotFound is returned when a custom event id does not
// exist.
var ErrCustomEventNotFound = errors.New("custom event not found")

// ErrCapacityExceeded is returned when a seat-count delta would
// drive a counter negative or above the hall total.  Callers treat
// this as "seats no longer available", not as a system failure.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrStatusConflict is returned when a guarded status update finds
// the record no longer in the expected status, e.g. two admins
// acting on the same approval token.  The second action must
// observe this and no-op.
var ErrStatusConflict = errors.New("status conflict")

// ErrPriceOverrideNotFound is returned when the individual-pricing
// table has no row for the requested key.  The pricing engine logs
// it, alerts an operator and falls back to the base price.
var ErrPriceOverrideNotFound = errors.New("price override not found")
