package model

import "time"

// BaseTicket is a purchasable ticket type, e.g. "1 ребёнок + 1
// взрослый".  It defines how many seats of each age group one
// purchase consumes and the price.  An optional time-bounded window
// overrides the base price: the in-period price applies when the
// purchase date falls within [PeriodStart, PeriodEnd); a nil
// PeriodEnd leaves the window open-ended.  Admin-maintained
// reference data, effectively immutable.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the ticket type.
//  Cost         – base price in rubles.
//  CostInPeriod – price applied inside the override window.
//  PeriodStart  – window start, inclusive (nullable).
//  PeriodEnd    – window end, exclusive (nullable = unbounded).
//  QtyChild     – child seats consumed by one purchase.
//  QtyAdult     – adult seats consumed by one purchase.
type BaseTicket struct {
	ID           int64      // base_tickets.id
	Name         string     // base_tickets.name
	Cost         int        // base_tickets.cost
	CostInPeriod int        // base_tickets.cost_in_period
	PeriodStart  *time.Time // base_tickets.period_start (nullable)
	PeriodEnd    *time.Time // base_tickets.period_end (nullable)
	QtyChild     int        // base_tickets.qty_child
	QtyAdult     int        // base_tickets.qty_adult
}
