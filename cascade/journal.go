// File: cascade/journal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded FIFO journal of observed fault deliveries. Fed by the fake
// platform and by the faultprobe harness after each diagnostic line is
// parsed back, never by the signal path itself.

package cascade

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/faultstack/api"
)

// Record is one observed delivery together with the budget reported
// for it. Serialized by faultprobe as a compact msgpack report.
type Record struct {
	Signal     int    `msgpack:"sig"`
	Addr       uint64 `msgpack:"addr"`
	Depth      int32  `msgpack:"depth"`
	StackBase  uint64 `msgpack:"base"`
	Budget     uint64 `msgpack:"budget"`
	Escalated  bool   `msgpack:"escalated"`
	ActionName string `msgpack:"action"`
}

// RecordOf flattens a fault context into a journal record.
func RecordOf(fc *api.FaultContext, escalated bool, action api.Action) Record {
	return Record{
		Signal:     int(fc.Event.Signal),
		Addr:       uint64(fc.Event.FaultingAddr),
		Depth:      fc.Event.Depth,
		StackBase:  uint64(fc.StackBase),
		Budget:     uint64(fc.RemainingBudget()),
		Escalated:  escalated,
		ActionName: action.String(),
	}
}

// Journal keeps the most recent records up to a fixed capacity,
// dropping the oldest first.
type Journal struct {
	mu  sync.Mutex
	q   *queue.Queue
	cap int
}

// NewJournal builds a journal holding at most capacity records.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 64
	}
	return &Journal{q: queue.New(), cap: capacity}
}

// Append adds one record, evicting the oldest when full.
func (j *Journal) Append(r Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.q.Length() >= j.cap {
		j.q.Remove()
	}
	j.q.Add(r)
}

// Len returns the number of retained records.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.q.Length()
}

// Snapshot copies the retained records oldest-first.
func (j *Journal) Snapshot() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Record, 0, j.q.Length())
	for i := 0; i < j.q.Length(); i++ {
		out = append(out, j.q.Get(i).(Record))
	}
	return out
}
