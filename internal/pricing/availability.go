package pricing

import "github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"

// CheckAvailableSeats reports whether a performance can seat the
// requested party.  Child and adult free-seat counts must each cover
// the requested sizes; the adult check is skipped for child-only
// parties.
func CheckAvailableSeats(se *model.ScheduleEvent, child, adult int, onlyChild bool) bool {
	if se.FreeChildSeats() < child {
		return false
	}
	if onlyChild {
		return true
	}
	return se.FreeAdultSeats() >= adult
}

// CheckRatioConstraint guards ticket types that assume chaperoning
// adults are seated alongside children.  A ticket whose child count
// exceeds its adult count carries an adult shortfall; selling it is
// only allowed when the free seats carry at least the same
// shortfall, otherwise a pure-child group would occupy adult seats
// the ticket never paid for.  Events in the exempt category (e.g.
// workshops, where children attend unaccompanied) skip the check.
func CheckRatioConstraint(se *model.ScheduleEvent, bt *model.BaseTicket, eventCategory, exemptCategory string) bool {
	if eventCategory == exemptCategory {
		return true
	}
	ticketShortfall := bt.QtyChild - bt.QtyAdult
	if ticketShortfall <= 0 {
		return true
	}
	freeShortfall := se.FreeChildSeats() - se.FreeAdultSeats()
	return ticketShortfall <= freeShortfall
}
