package model

import "time"

// ScheduleEvent is one dated and timed performance of a TheaterEvent.
// Seat accounting is split by age group (child/adult) and, within
// each group, into confirmed and nonconfirmed counters.  Confirmed
// seats belong to approved tickets; nonconfirmed seats are held by
// in-progress bookings awaiting admin approval and are released when
// the booking times out or is rejected.
//
// Invariant, enforced by the repository on every mutation:
//  0 <= confirmed + nonconfirmed <= total, for both age groups.
//
// Fields:
//  ID                   – primary key identifier.
//  TheaterEventID       – production being performed.
//  StartsAt             – date and time of the performance.
//  QtyChild             – total child seats in the hall.
//  QtyAdult             – total adult seats in the hall.
//  QtyChildConfirmed    – child seats taken by approved tickets.
//  QtyAdultConfirmed    – adult seats taken by approved tickets.
//  QtyChildNonConfirmed – child seats tentatively held.
//  QtyAdultNonConfirmed – adult seats tentatively held.
//  GiftFlag             – performance includes a gift for each child.
//  SantaFlag            – performance includes a Santa visit.
//  TreeFlag             – performance includes a holiday tree show.
//  WeekdayOverride      – explicit weekday/weekend classification for
//                         pricing; nil means derive from StartsAt.
type ScheduleEvent struct {
	ID                   int64     // schedule_events.id
	TheaterEventID       int64     // schedule_events.theater_event_id
	StartsAt             time.Time // schedule_events.starts_at
	QtyChild             int       // schedule_events.qty_child
	QtyAdult             int       // schedule_events.qty_adult
	QtyChildConfirmed    int       // schedule_events.qty_child_confirmed
	QtyAdultConfirmed    int       // schedule_events.qty_adult_confirmed
	QtyChildNonConfirmed int       // schedule_events.qty_child_nonconfirmed
	QtyAdultNonConfirmed int       // schedule_events.qty_adult_nonconfirmed
	GiftFlag             bool      // schedule_events.gift_flag
	SantaFlag            bool      // schedule_events.santa_flag
	TreeFlag             bool      // schedule_events.tree_flag
	WeekdayOverride      *bool     // schedule_events.weekday_override (nullable)
}

// FreeChildSeats returns the number of child seats neither confirmed
// nor tentatively held.
func (s *ScheduleEvent) FreeChildSeats() int {
	return s.QtyChild - s.QtyChildConfirmed - s.QtyChildNonConfirmed
}

// FreeAdultSeats returns the number of adult seats neither confirmed
// nor tentatively held.
func (s *ScheduleEvent) FreeAdultSeats() int {
	return s.QtyAdult - s.QtyAdultConfirmed - s.QtyAdultNonConfirmed
}

// SoldOut reports whether no child seats remain.
func (s *ScheduleEvent) SoldOut() bool {
	return s.FreeChildSeats() <= 0
}
