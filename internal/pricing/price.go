package pricing

import (
	"time"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

// ResolvePrice returns the price of a ticket type as of the given
// date.  When the date falls inside the ticket's override window
// [PeriodStart, PeriodEnd) the in-period price applies; a nil
// PeriodEnd leaves the window open-ended.  The end bound is
// exclusive: resolving exactly at PeriodEnd yields the base price.
func ResolvePrice(bt *model.BaseTicket, asOf time.Time) int {
	if bt.PeriodStart == nil {
		return bt.Cost
	}
	if asOf.Before(*bt.PeriodStart) {
		return bt.Cost
	}
	if bt.PeriodEnd != nil && !asOf.Before(*bt.PeriodEnd) {
		return bt.Cost
	}
	return bt.CostInPeriod
}
