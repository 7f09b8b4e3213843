// Package handles builds, for every component, the ordered list of its direct
// dependencies ("requires") and of the components that depend on it
// ("supports"), and converts those records to and from the flat,
// sentinel-delimited token form used by generated handle tables.
//
// Both views are derived from the same edge set in one pass, so for every
// edge (A, B) B appears in A's requires and A appears in B's supports.
package handles
