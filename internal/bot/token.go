package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Approval token actions and entity kinds.
const (
	ActionConfirm = "confirm"
	ActionReject  = "reject"

	EntityTicket = "ticket"
	EntityEvent  = "event"
)

// ApprovalToken is the callback payload attached to an admin
// approval message.  It encodes everything needed to correlate the
// admin's tap back to the right user and record, so approvals keep
// working even if the bot restarted between request and response:
//
//	{action}-{entity}|{chat_id} {message_id} {record_id} {option}
//
// ChatID and MessageID identify the user-side prompt to clean up;
// RecordID is the ticket or custom event acted on; Option carries a
// flow-specific qualifier and may be empty.
type ApprovalToken struct {
	Action    string
	Entity    string
	ChatID    int64
	MessageID int
	RecordID  int64
	Option    string
}

// Encode serializes the token into callback data.  The result stays
// well under Telegram's 64-byte callback data limit.
func (t ApprovalToken) Encode() string {
	s := fmt.Sprintf("%s-%s|%d %d %d", t.Action, t.Entity, t.ChatID, t.MessageID, t.RecordID)
	if t.Option != "" {
		s += " " + t.Option
	}
	return s
}

// DecodeApprovalToken parses callback data produced by Encode.
func DecodeApprovalToken(data string) (ApprovalToken, error) {
	var t ApprovalToken
	head, tail, ok := strings.Cut(data, "|")
	if !ok {
		return t, fmt.Errorf("approval token %q: missing separator", data)
	}
	action, entity, ok := strings.Cut(head, "-")
	if !ok {
		return t, fmt.Errorf("approval token %q: malformed head", data)
	}
	if action != ActionConfirm && action != ActionReject {
		return t, fmt.Errorf("approval token %q: unknown action %q", data, action)
	}
	if entity != EntityTicket && entity != EntityEvent {
		return t, fmt.Errorf("approval token %q: unknown entity %q", data, entity)
	}
	fields := strings.Fields(tail)
	if len(fields) < 3 || len(fields) > 4 {
		return t, fmt.Errorf("approval token %q: expected 3 or 4 fields, got %d", data, len(fields))
	}
	chatID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return t, fmt.Errorf("approval token %q: bad chat id: %w", data, err)
	}
	messageID, err := strconv.Atoi(fields[1])
	if err != nil {
		return t, fmt.Errorf("approval token %q: bad message id: %w", data, err)
	}
	recordID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return t, fmt.Errorf("approval token %q: bad record id: %w", data, err)
	}
	t = ApprovalToken{
		Action:    action,
		Entity:    entity,
		ChatID:    chatID,
		MessageID: messageID,
		RecordID:  recordID,
	}
	if len(fields) == 4 {
		t.Option = fields[3]
	}
	return t, nil
}

// isApprovalCallback reports whether callback data looks like an
// approval token rather than a dialog-step payload.
func isApprovalCallback(data string) bool {
	return strings.HasPrefix(data, ActionConfirm+"-") || strings.HasPrefix(data, ActionReject+"-")
}
