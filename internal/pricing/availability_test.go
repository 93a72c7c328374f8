package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

func hall(freeChild, freeAdult int) *model.ScheduleEvent {
	return &model.ScheduleEvent{QtyChild: freeChild, QtyAdult: freeAdult}
}

func TestCheckAvailableSeats(t *testing.T) {
	se := &model.ScheduleEvent{
		QtyChild: 10, QtyAdult: 10,
		QtyChildConfirmed: 4, QtyChildNonConfirmed: 4,
		QtyAdultConfirmed: 9,
	}
	// 2 child and 1 adult seats free.
	assert.True(t, CheckAvailableSeats(se, 2, 1, false))
	assert.False(t, CheckAvailableSeats(se, 3, 1, false))
	assert.False(t, CheckAvailableSeats(se, 1, 2, false))

	// Child-only parties ignore adult seats entirely.
	assert.True(t, CheckAvailableSeats(se, 2, 5, true))
}

func TestChildOnlySeatsCannotCarryPackageTicket(t *testing.T) {
	// 3 free child seats, 0 free adult seats: a "1 child + 1 adult"
	// ticket cannot be sold.
	se := hall(3, 0)
	assert.False(t, CheckAvailableSeats(se, 1, 1, false))
	// A child-only ticket for the same showing is fine.
	assert.True(t, CheckAvailableSeats(se, 3, 0, true))
}

func TestCheckRatioConstraint(t *testing.T) {
	oneOne := &model.BaseTicket{QtyChild: 1, QtyAdult: 1}
	threeKids := &model.BaseTicket{QtyChild: 3, QtyAdult: 0}

	tests := []struct {
		name      string
		se        *model.ScheduleEvent
		bt        *model.BaseTicket
		category  string
		want      bool
	}{
		{"balanced ticket always passes", hall(1, 1), oneOne, "performance", true},
		{"shortfall covered by free seats", hall(7, 3), threeKids, "performance", true},
		{"shortfall exactly covered", hall(5, 2), threeKids, "performance", true},
		{"shortfall not covered", hall(4, 2), threeKids, "performance", false},
		{"exempt category skips the check", hall(3, 3), threeKids, "workshop", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckRatioConstraint(tt.se, tt.bt, tt.category, "workshop"))
		})
	}
}
