/*
Package devpath provides a structured representation of devicetree node paths,
the names under which hardware components are registered.

A path is a slash-separated sequence of segments rooted at "/", where every
segment is a node name optionally followed by a unit address, e.g.
`/soc/peripheral@50000000/spi@a000/gc9a01@0`.
*/
package devpath
