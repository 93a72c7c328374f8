package conversation

import (
	"sync"
	"time"
)

type timerEntry struct {
	gen   uint64
	timer *time.Timer
}

// Timers tracks one inactivity timer per (user, conversation).
// Arming a key replaces any pending timer for it, which is how every
// dialog step pushes the 30-minute deadline forward.  Each arm bumps
// a generation counter and the fired callback first re-checks that
// its generation is still current, so a timer racing a final dialog
// step no-ops instead of clearing a newer conversation's state.
type Timers struct {
	mu sync.Mutex
	m  map[key]*timerEntry
}

// NewTimers constructs an empty timer registry.
func NewTimers() *Timers {
	return &Timers{m: make(map[key]*timerEntry)}
}

// Arm schedules fn to run after d, replacing any pending timer for
// the same (user, conversation).
func (t *Timers) Arm(userID int64, conversation string, d time.Duration, fn func()) {
	k := key{userID, conversation}
	t.mu.Lock()
	entry, ok := t.m[k]
	if !ok {
		entry = &timerEntry{}
		t.m[k] = entry
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.gen++
	gen := entry.gen
	entry.timer = time.AfterFunc(d, func() {
		if !t.stillCurrent(k, gen) {
			return
		}
		fn()
	})
	t.mu.Unlock()
}

// Cancel stops any pending timer for the key.  A timer already in
// flight sees its generation invalidated and no-ops.
func (t *Timers) Cancel(userID int64, conversation string) {
	k := key{userID, conversation}
	t.mu.Lock()
	if entry, ok := t.m[k]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.gen++
	}
	t.mu.Unlock()
}

func (t *Timers) stillCurrent(k key, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.m[k]
	return ok && entry.gen == gen
}
