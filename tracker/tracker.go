/*
Package tracker implements the Tracker component of spec.md section 4.3: a
thread-safe set of owned Crystals with a multi-reader/single-writer lock, emitting a
newStructureAdded notification in insertion order whenever a structure is inserted.

Grounded on katalvlaran-lvlath's RWMutex-guarded graph store (graph/core/types.go),
generalized from a node/edge set to a crystal set, with the event channel modeled on
the teacher's own fan-out-with-sync.WaitGroup idiom (synthesis/fix/synthesis.go's
findProblems, clone.go's recurseLigate) repurposed from "fan out work to N workers"
to "fan out one notification to N subscribers, in order".
*/
package tracker

import (
	"sync"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// Event is delivered to subscribers on structure insertion.
type Event struct {
	Kind      EventKind
	Structure *crystal.Crystal
}

type EventKind int

const (
	NewStructureAdded EventKind = iota
	StructureUpdated
)

// Tracker owns a set of Crystals behind a multi-reader/single-writer lock. Per
// spec.md section 5's lock-ordering rule, the tracker lock is always acquired before
// any individual structure's lock, never the reverse.
type Tracker struct {
	mu         sync.RWMutex
	structures []*crystal.Crystal
	byTag      map[string]*crystal.Crystal

	subMu       sync.Mutex
	subscribers []chan Event

	lastStatus map[string]crystal.PipelineState
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byTag:      make(map[string]*crystal.Crystal),
		lastStatus: make(map[string]crystal.PipelineState),
	}
}

// Subscribe registers a new listener and returns a channel that receives every future
// event in insertion order. The channel is buffered generously so a slow subscriber
// does not stall the writer holding the tracker lock; notifications are always sent
// outside the write lock (spec.md section 5: "Keep notifications out of held locks").
func (t *Tracker) Subscribe() <-chan Event {
	ch := make(chan Event, 256)
	t.subMu.Lock()
	t.subscribers = append(t.subscribers, ch)
	t.subMu.Unlock()
	return ch
}

func (t *Tracker) publish(ev Event) {
	t.subMu.Lock()
	subs := append([]chan Event(nil), t.subscribers...)
	t.subMu.Unlock()
	for _, ch := range subs {
		if ev.Kind == StructureUpdated {
			// May coalesce per spec.md section 5: drop rather than block if the
			// subscriber isn't keeping up.
			select {
			case ch <- ev:
			default:
			}
			continue
		}
		// NewStructureAdded must be delivered in insertion order and is never
		// dropped; the buffer is slack for bursty inserts, not a queue of record.
		ch <- ev
	}
}

// Insert adds a new structure under the write lock and emits NewStructureAdded.
func (t *Tracker) Insert(c *crystal.Crystal) {
	t.mu.Lock()
	t.structures = append(t.structures, c)
	t.byTag[c.Tag()] = c
	t.mu.Unlock()

	t.publish(Event{Kind: NewStructureAdded, Structure: c})
}

// NotifyUpdated emits StructureUpdated for c if its pipeline state actually changed
// since the last notification for this tag, coalescing repeated notifications for the
// same state per spec.md section 5.
func (t *Tracker) NotifyUpdated(c *crystal.Crystal) {
	t.mu.Lock()
	prev, seen := t.lastStatus[c.Tag()]
	changed := !seen || prev != c.State
	if changed {
		t.lastStatus[c.Tag()] = c.State
	}
	t.mu.Unlock()

	if changed {
		t.publish(Event{Kind: StructureUpdated, Structure: c})
	}
}

// Size returns the number of tracked structures.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.structures)
}

// All returns a snapshot slice of every tracked structure, acquired under the read
// lock. The slice itself is safe to range over without holding any lock.
func (t *Tracker) All() []*crystal.Crystal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*crystal.Crystal, len(t.structures))
	copy(out, t.structures)
	return out
}

// Get looks up a structure by tag.
func (t *Tracker) Get(tag string) (*crystal.Crystal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.byTag[tag]
	return c, ok
}

// CountInProgress returns how many tracked structures are currently Submitted or
// InProcess, for the running_job_limit bound (spec.md section 4.8).
func (t *Tracker) CountInProgress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, c := range t.structures {
		if c.State.InProgress() {
			n++
		}
	}
	return n
}

// Reset destroys every tracked structure and clears subscriptions' delivered history
// (subscriber channels themselves stay open; callers that want a fresh event stream
// should Subscribe again).
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.structures = nil
	t.byTag = make(map[string]*crystal.Crystal)
	t.lastStatus = make(map[string]crystal.PipelineState)
	t.mu.Unlock()
}
