// Package recording captures per-tick agent snapshots published by the
// simulator and can persist a finished run to SQLite.
package recording

import (
	"crowdsim/sim"

	"github.com/google/uuid"
)

// TickSnapshot is the state of every agent at the end of one tick.
type TickSnapshot struct {
	Tick   int
	Time   float64
	Agents []sim.AgentInfo
}

// Recording accumulates the tick history of one simulation run. It
// implements sim.TickObserver and is attached to a simulator by the host.
type Recording struct {
	runID uuid.UUID
	ticks []TickSnapshot
}

// New creates an empty recording with a fresh run id.
func New() *Recording {
	return &Recording{runID: uuid.New()}
}

// RunID identifies this run in persisted storage.
func (r *Recording) RunID() uuid.UUID { return r.runID }

// OnTick stores a snapshot. The slice is copied; the simulator may reuse
// its buffer.
func (r *Recording) OnTick(time float64, agents []sim.AgentInfo) {
	cp := make([]sim.AgentInfo, len(agents))
	copy(cp, agents)
	r.ticks = append(r.ticks, TickSnapshot{
		Tick:   len(r.ticks),
		Time:   time,
		Agents: cp,
	})
}

// TickCount returns the number of recorded ticks.
func (r *Recording) TickCount() int { return len(r.ticks) }

// Snapshot returns the recorded state of tick i.
func (r *Recording) Snapshot(i int) TickSnapshot { return r.ticks[i] }

// Last returns the most recent snapshot, ok==false when empty.
func (r *Recording) Last() (TickSnapshot, bool) {
	if len(r.ticks) == 0 {
		return TickSnapshot{}, false
	}
	return r.ticks[len(r.ticks)-1], true
}
