package pricing

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

type fakeOverrides struct {
	rows map[string]int
	err  error
}

func (f *fakeOverrides) Get(_ context.Context, optionTag, dayKind string, baseTicketID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	key := optionTag + "/" + dayKind
	cost, ok := f.rows[key]
	if !ok {
		return 0, repository.ErrPriceOverrideNotFound
	}
	return cost, nil
}

func TestOptionTagPriority(t *testing.T) {
	te := &model.TheaterEvent{ID: 7, Category: "performance", IndividualPricing: true}

	assert.Equal(t, "gift", OptionTag(&model.ScheduleEvent{GiftFlag: true, SantaFlag: true}, te))
	assert.Equal(t, "holiday", OptionTag(&model.ScheduleEvent{SantaFlag: true}, te))
	assert.Equal(t, "holiday", OptionTag(&model.ScheduleEvent{TreeFlag: true}, te))
	assert.Equal(t, "event-7", OptionTag(&model.ScheduleEvent{}, te))

	plain := &model.TheaterEvent{ID: 7, Category: "performance"}
	assert.Equal(t, "performance", OptionTag(&model.ScheduleEvent{}, plain))
}

func TestResolveUsesOverrideTable(t *testing.T) {
	src := &fakeOverrides{rows: map[string]int{
		"event-7/weekday": 900,
		"event-7/weekend": 1100,
	}}
	r := NewResolver(src, nil, zerolog.Nop())

	te := &model.TheaterEvent{ID: 7, IndividualPricing: true}
	bt := &model.BaseTicket{ID: 1, Cost: 1000}

	// 2026-09-05 is a Saturday, 2026-09-07 a Monday.
	weekend := &model.ScheduleEvent{StartsAt: date("2026-09-05")}
	weekday := &model.ScheduleEvent{StartsAt: date("2026-09-07")}

	assert.Equal(t, 1100, r.Resolve(context.Background(), weekend, te, bt, date("2026-08-30")))
	assert.Equal(t, 900, r.Resolve(context.Background(), weekday, te, bt, date("2026-08-30")))
}

func TestResolveMissingOverrideFallsBackAndAlerts(t *testing.T) {
	var alerted string
	r := NewResolver(&fakeOverrides{}, func(_ context.Context, text string) {
		alerted = text
	}, zerolog.Nop())

	te := &model.TheaterEvent{ID: 7, IndividualPricing: true}
	bt := &model.BaseTicket{ID: 1, Name: "1+1", Cost: 1000}
	se := &model.ScheduleEvent{StartsAt: date("2026-09-05")}

	got := r.Resolve(context.Background(), se, te, bt, date("2026-08-30"))
	assert.Equal(t, 1000, got)
	require.NotEmpty(t, alerted)
	assert.Contains(t, alerted, "event-7")
}

func TestResolveSkipsTableWithoutIndividualPricing(t *testing.T) {
	src := &fakeOverrides{rows: map[string]int{"performance/weekend": 999}}
	r := NewResolver(src, nil, zerolog.Nop())

	te := &model.TheaterEvent{ID: 7, Category: "performance"}
	bt := &model.BaseTicket{ID: 1, Cost: 1000}
	se := &model.ScheduleEvent{StartsAt: date("2026-09-05")}

	assert.Equal(t, 1000, r.Resolve(context.Background(), se, te, bt, date("2026-08-30")))
}
