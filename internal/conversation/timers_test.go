package conversation

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimersFire(t *testing.T) {
	timers := NewTimers()
	fired := make(chan struct{})
	timers.Arm(1, ConvReserve, 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimersRearmReplacesPending(t *testing.T) {
	timers := NewTimers()
	var fires atomic.Int32

	timers.Arm(1, ConvReserve, 20*time.Millisecond, func() { fires.Add(1) })
	timers.Arm(1, ConvReserve, 50*time.Millisecond, func() { fires.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
}

func TestTimersCancel(t *testing.T) {
	timers := NewTimers()
	var fires atomic.Int32

	timers.Arm(1, ConvReserve, 20*time.Millisecond, func() { fires.Add(1) })
	timers.Cancel(1, ConvReserve)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
}

func TestTimersKeysAreIndependent(t *testing.T) {
	timers := NewTimers()
	var reserveFires, bdayFires atomic.Int32

	timers.Arm(1, ConvReserve, 10*time.Millisecond, func() { reserveFires.Add(1) })
	timers.Arm(1, ConvBirthdayOrder, 10*time.Millisecond, func() { bdayFires.Add(1) })
	timers.Cancel(1, ConvReserve)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), reserveFires.Load())
	assert.Equal(t, int32(1), bdayFires.Load())
}

func TestTimersStaleGenerationNoOps(t *testing.T) {
	timers := NewTimers()
	var old, current atomic.Int32

	// The first timer is replaced before it can fire; only the
	// second generation may run.
	timers.Arm(1, ConvReserve, 5*time.Millisecond, func() { old.Add(1) })
	timers.Arm(1, ConvReserve, 15*time.Millisecond, func() { current.Add(1) })

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), old.Load())
	assert.Equal(t, int32(1), current.Load())
}
