// Package devtable holds the set of registered components and their stable,
// dense integer handles.
//
// The table is append-only: it is populated sequentially during startup and
// only read afterwards. Handles start at 1; 0 is the null handle and the
// extremes of the int16 range are reserved as record sentinels by the
// handles package.
package devtable

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ID is the handle of a registered component.
type ID int16

// Null is never assigned to a component.
const Null ID = 0

// MaxID is the largest handle that can be assigned. math.MaxInt16 is
// reserved as the record terminator.
const MaxID ID = math.MaxInt16 - 1

var (
	// ErrUnknownComponent is returned for handles or names that were never registered.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrDuplicateName is returned when a name is registered twice.
	ErrDuplicateName = errors.New("duplicate component name")
	// ErrTableFull is returned once every assignable handle is in use.
	ErrTableFull = errors.New("component table full")
)

// Table implements the component registry using a dense slice and a name
// index, guarded by a RWMutex for concurrent readers.
type Table struct {
	mu     sync.RWMutex
	names  []string // names[i] belongs to ID(i+1)
	byName map[string]ID
}

// New creates a new, empty component table.
func New() *Table {
	return &Table{byName: make(map[string]ID)}
}

// Register assigns the next handle to name.
func (t *Table) Register(name string) (ID, error) {
	if name == "" {
		return Null, fmt.Errorf("component name cannot be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, exists := t.byName[name]; exists {
		return Null, fmt.Errorf("%w: %q already registered as %d", ErrDuplicateName, name, id)
	}
	if len(t.names) >= int(MaxID) {
		return Null, fmt.Errorf("%w: cannot register %q", ErrTableFull, name)
	}

	t.names = append(t.names, name)
	id := ID(len(t.names))
	t.byName[name] = id
	return id, nil
}

// Count returns the number of registered components.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// Valid reports whether id refers to a registered component.
func (t *Table) Valid(id ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.valid(id)
}

func (t *Table) valid(id ID) bool {
	return id > Null && int(id) <= len(t.names)
}

// NameOf returns the diagnostic name of id.
func (t *Table) NameOf(id ID) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(id) {
		return "", fmt.Errorf("%w: handle %d", ErrUnknownComponent, id)
	}
	return t.names[id-1], nil
}

// Lookup resolves a registered name to its handle.
func (t *Table) Lookup(name string) (ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.byName[name]
	return id, ok
}

// IDs returns every registered handle in ascending order.
func (t *Table) IDs() []ID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]ID, len(t.names))
	for i := range ids {
		ids[i] = ID(i + 1)
	}
	return ids
}
