// Package readiness records which components have completed initialization.
//
// A Tracker is created once at startup for a fixed component table and is
// the only structure mutated after startup. Every component moves through
// Uninitialized -> Initializing -> Ready; a caller whose bring-up failed may
// Reset an Initializing component back to Uninitialized, but nothing leaves
// Ready.
package readiness

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/devinit/internal/devtable"
)

// Transition is delivered to subscribers after every successful state change.
type Transition struct {
	ID   devtable.ID
	From Status
	To   Status
}

// Tracker holds one status cell per component behind a single RWMutex.
type Tracker struct {
	mu          sync.RWMutex
	cells       []Status // cells[i] belongs to ID(i+1)
	subscribers []func(Transition)
}

// New creates a tracker with every component of table Uninitialized.
// Components registered after New are unknown to the tracker.
func New(table *devtable.Table) *Tracker {
	return &Tracker{cells: make([]Status, table.Count())}
}

// Subscribe registers fn to be called after each transition, outside the
// tracker's lock. Subscribers must be registered before concurrent use.
func (t *Tracker) Subscribe(fn func(Transition)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

// StatusOf returns the current status of id.
func (t *Tracker) StatusOf(id devtable.ID) (Status, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(id) {
		return Uninitialized, fmt.Errorf("%w: handle %d", devtable.ErrUnknownComponent, id)
	}
	return t.cells[id-1], nil
}

// MarkInitializing announces that a caller is about to bring id up.
func (t *Tracker) MarkInitializing(id devtable.ID) error {
	return t.transition(id, Initializing, func(from Status) error {
		switch from {
		case Uninitialized:
			return nil
		case Ready:
			return ErrAlreadyReady
		default:
			return ErrInvalidTransition
		}
	})
}

// MarkReady records that the bring-up of id completed.
func (t *Tracker) MarkReady(id devtable.ID) error {
	return t.transition(id, Ready, func(from Status) error {
		switch from {
		case Initializing:
			return nil
		case Ready:
			return ErrAlreadyReady
		default:
			return ErrInvalidTransition
		}
	})
}

// Reset returns an Initializing component to Uninitialized so that its
// bring-up can be attempted again.
func (t *Tracker) Reset(id devtable.ID) error {
	return t.transition(id, Uninitialized, func(from Status) error {
		switch from {
		case Initializing:
			return nil
		case Ready:
			return ErrAlreadyReady
		default:
			return ErrInvalidTransition
		}
	})
}

func (t *Tracker) transition(id devtable.ID, to Status, allowed func(from Status) error) error {
	t.mu.Lock()
	if !t.valid(id) {
		t.mu.Unlock()
		return fmt.Errorf("%w: handle %d", devtable.ErrUnknownComponent, id)
	}
	from := t.cells[id-1]
	if err := allowed(from); err != nil {
		t.mu.Unlock()
		return &TransitionError{ID: id, From: from, To: to, Err: err}
	}
	t.cells[id-1] = to
	subscribers := t.subscribers
	t.mu.Unlock()

	tr := Transition{ID: id, From: from, To: to}
	for _, fn := range subscribers {
		fn(tr)
	}
	return nil
}

func (t *Tracker) valid(id devtable.ID) bool {
	return id > devtable.Null && int(id) <= len(t.cells)
}

// Snapshot returns an immutable copy of every status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cells := make([]Status, len(t.cells))
	copy(cells, t.cells)
	return Snapshot{cells: cells}
}

// Counts returns how many components are in each status.
func (t *Tracker) Counts() map[Status]int {
	return t.Snapshot().Counts()
}

// Snapshot is a point-in-time copy of a tracker's statuses.
type Snapshot struct {
	cells []Status
}

// StatusOf returns the status id had when the snapshot was taken.
func (s Snapshot) StatusOf(id devtable.ID) (Status, error) {
	if id <= devtable.Null || int(id) > len(s.cells) {
		return Uninitialized, fmt.Errorf("%w: handle %d", devtable.ErrUnknownComponent, id)
	}
	return s.cells[id-1], nil
}

// Len returns the number of components in the snapshot.
func (s Snapshot) Len() int {
	return len(s.cells)
}

// Counts returns how many components are in each status.
func (s Snapshot) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, st := range s.cells {
		counts[st]++
	}
	return counts
}

// AllReady reports whether every component is Ready.
func (s Snapshot) AllReady() bool {
	for _, st := range s.cells {
		if st != Ready {
			return false
		}
	}
	return true
}
