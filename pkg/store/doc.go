// Package store defines the Graph Store: the flat, serializable form of a
// dialogue graph and the only representation that survives between editing
// sessions.
//
// # Format
//
// A store is an ordered list of node records. Each record carries a stable
// opaque id, its output ports in authoring order, an optional editor
// position and an optional kind-tagged payload:
//
//	{
//	  "nodes": [
//	    {"id": "startnode", "outputPorts": [{"name": "Out", "connectedId": "b7..."}]},
//	    {"id": "b7...", "outputPorts": [{"name": "Bye", "connectedId": ""}],
//	     "position": {"x": 320, "y": 40},
//	     "data": {"kind": "dialogue", "dialogue": {"text": "Hello, traveller."}}}
//	  ]
//	}
//
// Two identifiers are reserved and must never change: [StartNodeID]
// ("startnode") names the unique entry node, and [EmptyPortID] ("") marks an
// output port that is not connected.
//
// # Edges
//
// Edges are not stored as such. A port's ConnectedID names the destination
// node, and the port's position in OutputPorts is the key the editor uses
// to rebuild the edge on load. Port names are labels only.
//
// # Invariants
//
// The store itself accepts any data. Uniqueness of ids, the presence of a
// single start node and the resolution of every ConnectedID are checked by
// [Store.Validate] and enforced by the editor's Save and Load.
package store
