package handles

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/devinit/internal/devtable"
)

// ErrSelfDependency is returned for an edge whose two ends are the same component.
var ErrSelfDependency = errors.New("component cannot depend on itself")

// Encoder collects dependency edges between components of a table.
type Encoder struct {
	table    *devtable.Table
	requires map[devtable.ID]map[devtable.ID]struct{} // Key: dependent, Value: set of dependencies
	edges    int
}

// NewEncoder creates an encoder for components of table.
func NewEncoder(table *devtable.Table) *Encoder {
	return &Encoder{
		table:    table,
		requires: make(map[devtable.ID]map[devtable.ID]struct{}),
	}
}

// AddEdge records that dependent requires dependency to be ready first.
// Adding the same edge twice is not an error.
func (e *Encoder) AddEdge(dependent, dependency devtable.ID) error {
	if !e.table.Valid(dependent) {
		return fmt.Errorf("%w: dependent handle %d", devtable.ErrUnknownComponent, dependent)
	}
	if !e.table.Valid(dependency) {
		return fmt.Errorf("%w: dependency handle %d", devtable.ErrUnknownComponent, dependency)
	}
	if dependent == dependency {
		return fmt.Errorf("%w: handle %d", ErrSelfDependency, dependent)
	}

	set, ok := e.requires[dependent]
	if !ok {
		set = make(map[devtable.ID]struct{})
		e.requires[dependent] = set
	}
	if _, exists := set[dependency]; !exists {
		set[dependency] = struct{}{}
		e.edges++
	}
	return nil
}

// EdgeCount returns the number of distinct edges added so far.
func (e *Encoder) EdgeCount() int {
	return e.edges
}

// Build produces a record for every registered component. Lists are sorted
// by ascending handle, so building twice from the same edges yields equal
// records.
func (e *Encoder) Build() Records {
	ids := e.table.IDs()
	records := make(Records, len(ids))
	for _, id := range ids {
		records[id] = Record{Requires: []devtable.ID{}, Supports: []devtable.ID{}}
	}

	for dependent, deps := range e.requires {
		for dependency := range deps {
			r := records[dependent]
			r.Requires = append(r.Requires, dependency)
			records[dependent] = r

			s := records[dependency]
			s.Supports = append(s.Supports, dependent)
			records[dependency] = s
		}
	}

	for id, r := range records {
		slices.Sort(r.Requires)
		slices.Sort(r.Supports)
		records[id] = r
	}
	return records
}
