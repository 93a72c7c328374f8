package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveMachineHappyPath(t *testing.T) {
	m := ReserveMachine()
	path := []State{StateStart, StateDate, StateTime, StateChoose, StateName,
		StatePhone, StateEmail, StateConfirm, StatePaid}
	for i := 0; i < len(path)-1; i++ {
		got, err := m.Step(path[i], path[i+1])
		require.NoError(t, err, "%s -> %s", path[i], path[i+1])
		assert.Equal(t, path[i+1], got)
	}
}

func TestBirthdayMachineOffsiteDetour(t *testing.T) {
	m := BirthdayMachine()
	// Offsite parties collect an address between place and date.
	path := []State{StateStart, StatePlace, StateAddress, StateDate, StateTime,
		StateChoose, StateAge, StateFormat, StateQtyChild, StateQtyAdult,
		StateNameChld, StateName, StatePhone, StateNote, StateConfirm}
	for i := 0; i < len(path)-1; i++ {
		_, err := m.Step(path[i], path[i+1])
		require.NoError(t, err, "%s -> %s", path[i], path[i+1])
	}
	// Theater parties skip the address step entirely.
	_, err := m.Step(StatePlace, StateDate)
	assert.NoError(t, err)
}

func TestMachineBackEdges(t *testing.T) {
	m := ReserveMachine()
	_, err := m.Step(StateConfirm, StateEmail)
	assert.NoError(t, err)
	_, err = m.Step(StatePhone, StateName)
	assert.NoError(t, err)
}

func TestMachineRejectsIllegalTransition(t *testing.T) {
	m := ReserveMachine()
	got, err := m.Step(StateDate, StateConfirm)
	assert.Error(t, err)
	assert.Equal(t, StateDate, got, "failed step must not advance")
}

func TestMachineEveryStateCanEnd(t *testing.T) {
	for _, m := range []*Machine{ReserveMachine(), BirthdayMachine()} {
		for from := range m.table {
			assert.True(t, m.Can(from, StateEnd), "%s: %s -> END", m.Name(), from)
		}
	}
}

func TestMachineSeatRaceRestart(t *testing.T) {
	m := ReserveMachine()
	// Losing the seat race at confirmation restarts date selection.
	_, err := m.Step(StateConfirm, StateDate)
	assert.NoError(t, err)
}

func TestNewMachinePanicsOnUndeclaredTarget(t *testing.T) {
	assert.Panics(t, func() {
		NewMachine("broken", map[State][]State{
			StateStart: {StateDate},
		})
	})
}

func TestRecordBackStack(t *testing.T) {
	rec := &Record{}
	rec.PushPrompt(Prompt{State: StateDate, Text: "дата"})
	rec.PushPrompt(Prompt{State: StateTime, Text: "время"})

	p, ok := rec.PopPrompt()
	require.True(t, ok)
	assert.Equal(t, StateTime, p.State)

	p, ok = rec.PopPrompt()
	require.True(t, ok)
	assert.Equal(t, StateDate, p.State)

	_, ok = rec.PopPrompt()
	assert.False(t, ok)
}
