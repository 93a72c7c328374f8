package conversation

import "time"

// Prompt captures a rendered dialog step so the Back button can
// restore its exact text and keyboard.  Keyboard rows hold
// label/callback-data pairs; the bot layer rebuilds the inline
// keyboard from them.
type Prompt struct {
	State    State       `json:"state"`
	Text     string      `json:"text"`
	Keyboard [][2]string `json:"keyboard,omitempty"`
}

// ReserveDraft accumulates the fields of an in-progress ticket
// reservation.  Fields are filled in dialog order; a zero value
// means the step has not been reached yet.
type ReserveDraft struct {
	Date            string `json:"date,omitempty"`
	ScheduleEventID int64  `json:"schedule_event_id,omitempty"`
	BaseTicketID    int64  `json:"base_ticket_id,omitempty"`
	Cost            int    `json:"cost,omitempty"`
	QtyChild        int    `json:"qty_child,omitempty"`
	QtyAdult        int    `json:"qty_adult,omitempty"`
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	TicketID        int64  `json:"ticket_id,omitempty"`
	SeatsHeld       bool   `json:"seats_held,omitempty"`
}

// BirthdayDraft accumulates the fields of an in-progress
// birthday-party booking.
type BirthdayDraft struct {
	Place          string  `json:"place,omitempty"`
	Address        string  `json:"address,omitempty"`
	Date           string  `json:"date,omitempty"`
	Time           string  `json:"time,omitempty"`
	TheaterEventID int64   `json:"theater_event_id,omitempty"`
	Age            float64 `json:"age,omitempty"`
	Format         string  `json:"format,omitempty"`
	QtyChild       int     `json:"qty_child,omitempty"`
	QtyAdult       int     `json:"qty_adult,omitempty"`
	ChildName      string  `json:"child_name,omitempty"`
	Name           string  `json:"name,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Note           string  `json:"note,omitempty"`
	CustomEventID  int64   `json:"custom_event_id,omitempty"`
}

// Record is the full durable state of one conversation with one
// user: the current state, the typed draft for the conversation
// type, the back-stack of prior prompts and UI bookkeeping.
type Record struct {
	UserID       int64          `json:"user_id"`
	ChatID       int64          `json:"chat_id"`
	Conversation string         `json:"conversation"`
	Current      State          `json:"current"`
	Reserve      *ReserveDraft  `json:"reserve,omitempty"`
	Birthday     *BirthdayDraft `json:"birthday,omitempty"`
	BackStack    []Prompt       `json:"back_stack,omitempty"`
	DeleteMsgIDs []int          `json:"delete_msg_ids,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PushPrompt appends a rendered prompt to the back-stack.
func (r *Record) PushPrompt(p Prompt) {
	r.BackStack = append(r.BackStack, p)
}

// PopPrompt removes and returns the most recent prior prompt.  The
// second return value is false when the stack is empty.
func (r *Record) PopPrompt() (Prompt, bool) {
	if len(r.BackStack) == 0 {
		return Prompt{}, false
	}
	p := r.BackStack[len(r.BackStack)-1]
	r.BackStack = r.BackStack[:len(r.BackStack)-1]
	return p, true
}
