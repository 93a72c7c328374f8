package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     bool
	}{
		{StatusCreated, StatusPaid, true},
		{StatusCreated, StatusApproved, true},
		{StatusCreated, StatusRejected, true},
		{StatusCreated, StatusCanceled, true},
		{StatusPaid, StatusApproved, true},
		{StatusPaid, StatusRejected, true},
		{StatusApproved, StatusCreated, false},
		{StatusRejected, StatusPaid, false},
		{StatusCanceled, StatusApproved, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestManualStatusTransitions(t *testing.T) {
	// Admins can move a paid or approved booking to the manual
	// statuses for refunds and reschedules.
	for _, to := range []TicketStatus{StatusRefunded, StatusTransferred, StatusPostponed} {
		assert.True(t, ValidTransition(StatusApproved, to), "APPROVED -> %s", to)
		assert.True(t, ValidTransition(StatusPaid, to), "PAID -> %s", to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.False(t, StatusTransferred.Terminal())
	assert.False(t, StatusPostponed.Terminal())
}
