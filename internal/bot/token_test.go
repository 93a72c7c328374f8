package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalTokenRoundTrip(t *testing.T) {
	tokens := []ApprovalToken{
		{Action: ActionConfirm, Entity: EntityTicket, ChatID: 123456789, MessageID: 42, RecordID: 7},
		{Action: ActionReject, Entity: EntityEvent, ChatID: -1001234567890, MessageID: 1, RecordID: 99, Option: "santa"},
	}
	for _, tok := range tokens {
		decoded, err := DecodeApprovalToken(tok.Encode())
		require.NoError(t, err)
		assert.Equal(t, tok, decoded)
	}
}

func TestApprovalTokenStaysUnderCallbackLimit(t *testing.T) {
	tok := ApprovalToken{
		Action:    ActionConfirm,
		Entity:    EntityTicket,
		ChatID:    -1009999999999999,
		MessageID: 999999999,
		RecordID:  999999999999,
		Option:    "option",
	}
	assert.LessOrEqual(t, len(tok.Encode()), 64)
}

func TestDecodeApprovalTokenRejectsGarbage(t *testing.T) {
	for _, bad := range []string{
		"",
		"confirm-ticket",
		"confirm-ticket|1 2",
		"confirm-ticket|a b c",
		"explode-ticket|1 2 3",
		"confirm-rocket|1 2 3",
		"confirm-ticket|1 2 3 4 5",
	} {
		_, err := DecodeApprovalToken(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestIsApprovalCallback(t *testing.T) {
	assert.True(t, isApprovalCallback("confirm-ticket|1 2 3"))
	assert.True(t, isApprovalCallback("reject-event|1 2 3"))
	assert.False(t, isApprovalCallback("date:2026-09-05"))
	assert.False(t, isApprovalCallback(cbBack))
}
