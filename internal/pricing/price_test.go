package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func TestResolvePrice(t *testing.T) {
	bt := &model.BaseTicket{
		Cost:         1000,
		CostInPeriod: 1500,
		PeriodStart:  datePtr("2026-12-20"),
		PeriodEnd:    datePtr("2027-01-10"),
	}

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"before window", date("2026-12-19"), 1000},
		{"at window start", date("2026-12-20"), 1500},
		{"inside window", date("2027-01-05"), 1500},
		{"at window end, exclusive", date("2027-01-10"), 1000},
		{"after window", date("2027-02-01"), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePrice(bt, tt.asOf))
		})
	}
}

func TestResolvePriceNoWindow(t *testing.T) {
	bt := &model.BaseTicket{Cost: 800, CostInPeriod: 1200}
	assert.Equal(t, 800, ResolvePrice(bt, date("2026-06-15")))
}

func TestResolvePriceOpenEndedWindow(t *testing.T) {
	bt := &model.BaseTicket{
		Cost:         1000,
		CostInPeriod: 1500,
		PeriodStart:  datePtr("2026-12-20"),
	}
	assert.Equal(t, 1000, ResolvePrice(bt, date("2026-12-19")))
	assert.Equal(t, 1500, ResolvePrice(bt, date("2030-01-01")))
}

func TestClassifyDay(t *testing.T) {
	wd := true
	we := false

	// 2026-08-29 is a Saturday, 2026-08-31 a Monday.
	assert.Equal(t, Weekend, ClassifyDay(date("2026-08-29"), nil))
	assert.Equal(t, Weekend, ClassifyDay(date("2026-08-30"), nil))
	assert.Equal(t, Weekday, ClassifyDay(date("2026-08-31"), nil))

	// Explicit overrides beat the calendar.
	assert.Equal(t, Weekday, ClassifyDay(date("2026-08-29"), &wd))
	assert.Equal(t, Weekend, ClassifyDay(date("2026-08-31"), &we))
}
