// Package devgraph is the facade the driver-initialization caller works
// against. It combines the static part of the dependency graph (component
// table, handle records, resolved order) with the one mutable part, the
// readiness tracker.
//
// # Lifecycle
//
//  1. **Build:** Build registers every described component, adds its edges,
//     encodes the records, validates them and resolves the order. Any error
//     aborts startup; no partial graph is ever returned.
//  2. **Bring-up:** callers query InitializationOrder and wrap each driver
//     initialization in BeginInitializing / CompleteInitializing, checking
//     DependenciesSatisfied first.
//  3. **Operation:** the graph is kept for the lifetime of the process and
//     queried with QueryReady.
//
// # Thread-Safety
//
// Everything except the readiness tracker is immutable after Build. All
// methods are safe for concurrent use.
package devgraph
