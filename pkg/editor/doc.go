// Package editor provides the in-memory, editable form of a dialogue graph
// and the two algorithms that move it to and from a [store.Store].
//
// # Overview
//
// A [Graph] is what an authoring front end (the CLI, the HTTP API, a GUI)
// manipulates: nodes with a position, a title, an optional dialogue payload,
// one multi-capacity input and an ordered list of single-capacity output
// slots. An [Edge] binds one output slot to the input of another node.
//
// Every graph contains exactly one start node, created by [New] with the
// reserved id [store.StartNodeID]. It has no input, cannot be removed and
// is reused (never duplicated) by Load.
//
// # Save
//
// [Graph.Save] flattens the graph into a new store, one record per node in
// creation order and one port record per slot in slot order. A bound slot
// stores the destination id, an unbound one stores [store.EmptyPortID].
// Callers replace their persisted store wholesale with the result.
//
// # Load
//
// [Load] rebuilds a graph in two passes. The first pass creates every node
// and its output slots; the second wires edges. Edges may point forward in
// record order, so no edge is attached until all nodes exist. Ports are
// matched to slots by index; their names are labels only.
//
// Load fails fast on duplicate ids, a missing or repeated start node, and
// ports that reference unknown nodes. [WithSkipDangling] switches the last
// case to skip-and-warn. [Graph.LoadInto] replaces an existing graph only
// when the load succeeds.
//
// # Concurrency
//
// A Graph is not safe for concurrent use.
package editor
