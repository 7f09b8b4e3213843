// Package order computes the canonical initialization order of a validated
// dependency graph and answers live "are the requirements of X ready"
// queries against a readiness source.
package order

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/specialistvlad/devinit/internal/cycle"
	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/specialistvlad/devinit/internal/readiness"
)

// ErrGraphNotAcyclic is returned by Resolve for a graph that failed validation.
var ErrGraphNotAcyclic = errors.New("graph is not acyclic")

// StatusReader is the readiness view consulted by satisfaction queries.
// Both *readiness.Tracker and readiness.Snapshot implement it.
type StatusReader interface {
	StatusOf(id devtable.ID) (readiness.Status, error)
}

// Resolve returns every component exactly once, dependencies before their
// dependents. Among components whose requirements are all placed, the
// lowest handle goes first, so a graph has exactly one resolved order.
//
// Callers are expected to have run cycle.Validate; Resolve validates again
// and refuses to produce an order for a cyclic graph.
func Resolve(records handles.Records) ([]devtable.ID, error) {
	if err := cycle.Validate(records); err != nil {
		if errors.Is(err, cycle.ErrCycleDetected) {
			return nil, fmt.Errorf("%w: %w", ErrGraphNotAcyclic, err)
		}
		return nil, err
	}

	remaining := make(map[devtable.ID]int, len(records))
	ready := &idHeap{}
	for _, id := range records.IDs() {
		remaining[id] = len(records[id].Requires)
		if remaining[id] == 0 {
			heap.Push(ready, id)
		}
	}

	resolved := make([]devtable.ID, 0, len(records))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(devtable.ID)
		resolved = append(resolved, id)

		for _, dependent := range records[id].Supports {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	// Validation passed, so this only trips on records whose two views disagree.
	if len(resolved) != len(records) {
		return nil, fmt.Errorf("%w: placed %d of %d components, requires and supports lists are inconsistent",
			ErrGraphNotAcyclic, len(resolved), len(records))
	}
	return resolved, nil
}

// idHeap is a min-heap of handles.
type idHeap []devtable.ID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(devtable.ID)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
