// Package cycle validates that the "requires" relation of a set of handle
// records is acyclic before any initialization order is produced.
package cycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/handles"
)

// ErrCycleDetected is matched by every *CycleError.
var ErrCycleDetected = errors.New("dependency cycle detected")

// CycleError reports one dependency cycle. Path starts and ends with the
// same handle; each element requires the one after it.
type CycleError struct {
	Path []devtable.ID
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

// Is makes errors.Is(err, ErrCycleDetected) hold.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// Names renders the cycle with component names, falling back to the handle
// for anything the table does not know.
func (e *CycleError) Names(table *devtable.Table) string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		name, err := table.NameOf(id)
		if err != nil {
			name = fmt.Sprintf("<%d>", id)
		}
		parts[i] = name
	}
	return strings.Join(parts, " -> ")
}

// Validate runs a depth-first traversal over every component and returns a
// *CycleError for the first cycle it meets. Roots and edges are visited in
// ascending handle order, so the reported cycle is the same on every run.
// Records are not modified.
func Validate(records handles.Records) error {
	// permanent: fully explored and known not to lead into a cycle.
	// onStack: part of the current traversal path.
	permanent := make(map[devtable.ID]bool, len(records))
	onStack := make(map[devtable.ID]bool)
	var stack []devtable.ID

	var visit func(id devtable.ID) error
	visit = func(id devtable.ID) error {
		if permanent[id] {
			return nil
		}
		if onStack[id] {
			start := 0
			for i, s := range stack {
				if s == id {
					start = i
					break
				}
			}
			path := append([]devtable.ID{}, stack[start:]...)
			return &CycleError{Path: append(path, id)}
		}

		onStack[id] = true
		stack = append(stack, id)

		for _, dep := range records[id].Requires {
			if _, known := records[dep]; !known {
				return fmt.Errorf("%w: handle %d required by %d", devtable.ErrUnknownComponent, dep, id)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
		permanent[id] = true
		return nil
	}

	for _, id := range records.IDs() {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
