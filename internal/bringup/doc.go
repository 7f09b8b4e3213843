// Package bringup drives driver initialization over a built device graph.
//
// The Executor runs a pool of workers. Components with no requirements are
// queued first; a component is queued once every component it requires is
// Ready. Each worker announces the bring-up to the graph, runs the driver
// selected by the component's compatible string under a per-component
// timeout and records the outcome. A component whose driver keeps failing
// is returned to Uninitialized and everything that transitively requires it
// is skipped, while unrelated components continue.
package bringup
