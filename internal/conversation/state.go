// Package conversation implements the durable per-user dialog state
// machine: enumerated states with a checked transition table, typed
// draft structs, a write-behind persistent store and per-conversation
// inactivity timers.
package conversation

import "fmt"

// State is a named node of a dialog flow.
type State string

const (
	StateStart    State = "START"
	StatePlace    State = "PLACE"
	StateAddress  State = "ADDRESS"
	StateDate     State = "DATE"
	StateTime     State = "TIME"
	StateChoose   State = "CHOOSE"
	StateAge      State = "AGE"
	StateFormat   State = "FORMAT"
	StateQtyChild State = "QTY_CHILD"
	StateQtyAdult State = "QTY_ADULT"
	StateNameChld State = "NAME_CHILD"
	StateName     State = "NAME"
	StatePhone    State = "PHONE"
	StateEmail    State = "EMAIL"
	StateNote     State = "NOTE"
	StateConfirm  State = "CONFIRM"
	StatePaid     State = "PAID"
	StateEnd      State = "END"
)

// Conversation names.  Each user has at most one state per name.
const (
	ConvReserve       = "reserve"
	ConvBirthdayOrder = "birthday-order"
	ConvBirthdayPaid  = "birthday-paid"
)

// Machine is a validated transition table for one conversation
// type.  Transitions not listed are illegal; attempting one is a
// programming error surfaced by Step, not a user-facing failure.
type Machine struct {
	name  string
	table map[State][]State
}

// NewMachine builds a Machine and verifies the table is closed:
// every state referenced as a target is also declared as a source or
// is StateEnd.  A malformed table is a construction-time panic, so
// flow wiring errors surface at startup rather than mid-dialog.
func NewMachine(name string, table map[State][]State) *Machine {
	for from, targets := range table {
		for _, to := range targets {
			if to == StateEnd {
				continue
			}
			if _, ok := table[to]; !ok {
				panic(fmt.Sprintf("conversation %s: state %s transitions to undeclared state %s", name, from, to))
			}
		}
	}
	return &Machine{name: name, table: table}
}

// Name returns the conversation name the machine drives.
func (m *Machine) Name() string { return m.name }

// Can reports whether moving from one state to another is legal.
// Every state may move to StateEnd (cancel and timeout paths).
func (m *Machine) Can(from, to State) bool {
	if to == StateEnd {
		return true
	}
	for _, next := range m.table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Step validates and returns the target state.  Illegal transitions
// return an error naming both states; callers treat it as a bug.
func (m *Machine) Step(from, to State) (State, error) {
	if !m.Can(from, to) {
		return from, fmt.Errorf("conversation %s: illegal transition %s -> %s", m.name, from, to)
	}
	return to, nil
}

// ReserveMachine drives the ticket reservation dialog.
func ReserveMachine() *Machine {
	return NewMachine(ConvReserve, map[State][]State{
		StateStart:   {StateDate},
		StateDate:    {StateTime, StateDate},
		StateTime:    {StateChoose, StateDate},
		StateChoose:  {StateName, StateTime, StateChoose},
		StateName:    {StatePhone, StateChoose},
		StatePhone:   {StateEmail, StateName},
		StateEmail:   {StateConfirm, StatePhone},
		StateConfirm: {StatePaid, StateEmail, StateDate},
		StatePaid:    {},
	})
}

// BirthdayMachine drives the birthday-party booking dialog.  The
// address step only occurs for offsite parties.
func BirthdayMachine() *Machine {
	return NewMachine(ConvBirthdayOrder, map[State][]State{
		StateStart:    {StatePlace},
		StatePlace:    {StateDate, StateAddress},
		StateAddress:  {StateDate, StatePlace},
		StateDate:     {StateTime, StatePlace, StateAddress},
		StateTime:     {StateChoose, StateDate},
		StateChoose:   {StateAge, StateTime},
		StateAge:      {StateFormat, StateChoose},
		StateFormat:   {StateQtyChild, StateAge},
		StateQtyChild: {StateQtyAdult, StateFormat},
		StateQtyAdult: {StateNameChld, StateQtyChild},
		StateNameChld: {StateName, StateQtyAdult},
		StateName:     {StatePhone, StateNameChld},
		StatePhone:    {StateNote, StateName},
		StateNote:     {StateConfirm, StatePhone},
		StateConfirm:  {StatePaid, StateNote},
		StatePaid:     {},
	})
}
