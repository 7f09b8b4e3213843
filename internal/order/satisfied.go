package order

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/specialistvlad/devinit/internal/readiness"
)

// IsSatisfied reports whether every component id transitively requires is
// Ready in statuses. The status of id itself is not consulted.
func IsSatisfied(records handles.Records, id devtable.ID, statuses StatusReader) (bool, error) {
	pending, err := walk(records, id, statuses, true)
	if err != nil {
		return false, err
	}
	return len(pending) == 0, nil
}

// Pending returns the transitive requirements of id that are not Ready, in
// ascending handle order.
func Pending(records handles.Records, id devtable.ID, statuses StatusReader) ([]devtable.ID, error) {
	pending, err := walk(records, id, statuses, false)
	if err != nil {
		return nil, err
	}
	slices.Sort(pending)
	return pending, nil
}

// walk visits the requirements of id depth-first, each at most once. With
// stopEarly set it returns as soon as one non-Ready requirement is seen.
func walk(records handles.Records, id devtable.ID, statuses StatusReader, stopEarly bool) ([]devtable.ID, error) {
	if _, ok := records[id]; !ok {
		return nil, fmt.Errorf("%w: handle %d", devtable.ErrUnknownComponent, id)
	}

	var pending []devtable.ID
	seen := map[devtable.ID]bool{id: true}
	stack := slices.Clone(records[id].Requires)
	for len(stack) > 0 {
		dep := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[dep] {
			continue
		}
		seen[dep] = true

		status, err := statuses.StatusOf(dep)
		if err != nil {
			return nil, err
		}
		if status != readiness.Ready {
			pending = append(pending, dep)
			if stopEarly {
				return pending, nil
			}
		}
		stack = append(stack, records[dep].Requires...)
	}
	return pending, nil
}
