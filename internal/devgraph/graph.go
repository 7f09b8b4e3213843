package devgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/cycle"
	"github.com/specialistvlad/devinit/internal/devtable"
	"github.com/specialistvlad/devinit/internal/handles"
	"github.com/specialistvlad/devinit/internal/hwdesc"
	"github.com/specialistvlad/devinit/internal/order"
	"github.com/specialistvlad/devinit/internal/readiness"
)

// Graph is a built, validated dependency graph plus its readiness state.
type Graph struct {
	table   *devtable.Table
	records handles.Records
	order   []devtable.ID
	tracker *readiness.Tracker
	info    map[devtable.ID]hwdesc.Device
}

// Build constructs a complete, validated dependency graph from a list of
// described devices.
func Build(ctx context.Context, devices []hwdesc.Device) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "device_count", len(devices))

	table := devtable.New()
	info := make(map[devtable.ID]hwdesc.Device, len(devices))

	// First pass: register every component so requirements can refer
	// forward.
	for _, d := range devices {
		id, err := table.Register(d.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to register component: %w", err)
		}
		info[id] = d
	}
	logger.Debug("Build: Component registration complete.", "component_count", table.Count())

	// Second pass: link dependencies.
	enc := handles.NewEncoder(table)
	for _, d := range devices {
		dependent, _ := table.Lookup(d.Name)
		for _, req := range d.Requires {
			dependency, ok := table.Lookup(req)
			if !ok {
				return nil, fmt.Errorf("component %q requires %q: %w", d.Name, req, devtable.ErrUnknownComponent)
			}
			if err := enc.AddEdge(dependent, dependency); err != nil {
				return nil, fmt.Errorf("component %q requires %q: %w", d.Name, req, err)
			}
		}
	}
	records := enc.Build()
	logger.Debug("Build: Relationship encoding complete.", "edge_count", enc.EdgeCount())

	if err := cycle.Validate(records); err != nil {
		var cycleErr *cycle.CycleError
		if errors.As(err, &cycleErr) {
			return nil, fmt.Errorf("%w: %w (%s)", order.ErrGraphNotAcyclic, err, cycleErr.Names(table))
		}
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	resolved, err := order.Resolve(records)
	if err != nil {
		return nil, fmt.Errorf("error resolving initialization order: %w", err)
	}

	logger.Debug("Build: Graph construction successful.", "order", resolved)
	return &Graph{
		table:   table,
		records: records,
		order:   resolved,
		tracker: readiness.New(table),
		info:    info,
	}, nil
}

// Table returns the component table.
func (g *Graph) Table() *devtable.Table {
	return g.table
}

// Records returns the handle records of every component. Callers must not
// modify them.
func (g *Graph) Records() handles.Records {
	return g.records
}

// Tracker returns the readiness tracker owned by the graph.
func (g *Graph) Tracker() *readiness.Tracker {
	return g.tracker
}

// Len returns the number of components.
func (g *Graph) Len() int {
	return len(g.order)
}

// InitializationOrder returns the canonical initialization order.
func (g *Graph) InitializationOrder() []devtable.ID {
	return slices.Clone(g.order)
}

// ComponentName returns the diagnostic name of id.
func (g *Graph) ComponentName(id devtable.ID) (string, error) {
	return g.table.NameOf(id)
}

// Lookup resolves a component name to its handle.
func (g *Graph) Lookup(name string) (devtable.ID, bool) {
	return g.table.Lookup(name)
}

// Device returns the description id was built from.
func (g *Graph) Device(id devtable.ID) (hwdesc.Device, bool) {
	d, ok := g.info[id]
	return d, ok
}

// Record returns the handle record of id.
func (g *Graph) Record(id devtable.ID) (handles.Record, error) {
	r, ok := g.records[id]
	if !ok {
		return handles.Record{}, fmt.Errorf("%w: handle %d", devtable.ErrUnknownComponent, id)
	}
	return r, nil
}

// BeginInitializing announces that the caller is about to bring id up.
func (g *Graph) BeginInitializing(id devtable.ID) error {
	return g.tracker.MarkInitializing(id)
}

// CompleteInitializing records that id is ready.
func (g *Graph) CompleteInitializing(id devtable.ID) error {
	return g.tracker.MarkReady(id)
}

// AbandonInitializing returns id to Uninitialized after a failed bring-up
// so it can be attempted again.
func (g *Graph) AbandonInitializing(id devtable.ID) error {
	return g.tracker.Reset(id)
}

// QueryReady reports whether id is Ready.
func (g *Graph) QueryReady(id devtable.ID) (bool, error) {
	status, err := g.tracker.StatusOf(id)
	if err != nil {
		return false, err
	}
	return status == readiness.Ready, nil
}

// DependenciesSatisfied reports whether everything id transitively
// requires is Ready.
func (g *Graph) DependenciesSatisfied(id devtable.ID) (bool, error) {
	return order.IsSatisfied(g.records, id, g.tracker)
}

// PendingDependencies lists the transitive requirements of id that are not
// Ready yet.
func (g *Graph) PendingDependencies(id devtable.ID) ([]devtable.ID, error) {
	return order.Pending(g.records, id, g.tracker)
}

// AllReady reports whether every component is Ready.
func (g *Graph) AllReady() bool {
	return g.tracker.Snapshot().AllReady()
}
