// Package pkg provides the core libraries for dialoguegraph, a toolkit for
// authoring and playing branching dialogue.
//
// # Overview
//
// Dialogue is authored as a node graph: each node carries a line of
// dialogue and a list of labeled output ports (the player's options), and
// each port leads to at most one other node. A unique start node is the
// entry point. The graph is persisted as a flat Graph Store and played back
// by a walker that only ever reads that store.
//
// # Architecture
//
// The data flow through dialoguegraph:
//
//	[script] TOML or CLI/HTTP edits
//	         ↓
//	    [editor] package (editable in-memory graph)
//	         ↓ Save            ↑ Load
//	    [store] package (flat Graph Store, JSON)
//	         ↓
//	    [assets] repositories (file, memory, SQLite, Redis, MongoDB)
//	         ↓
//	    [dialogue] walker / [render] diagrams
//
// # Quick Start
//
// Build a graph, save it and play it:
//
//	g := editor.New()
//	port, _ := g.AddOutputPort(store.StartNodeID, "Hello")
//	greet := g.CreateDialogueNode(store.Position{X: 300, Y: 40}, "Hi there!")
//	_ = g.Connect(store.StartNodeID, port, greet)
//
//	s := g.Save()
//	w := dialogue.NewWalker(s)
//	st, _ := w.Begin()          // start node, options ["Hello"]
//	st, _ = w.SelectOption(0)   // "Hi there!"
//
// # Main Packages
//
// [store] - The Graph Store: node records with ordered output ports,
// reserved ids, O(1) lookup, validation, JSON codec and content hash.
//
// [editor] - The editable graph and the two-pass Save/Load between it and
// the store. Ports are matched by index, never by name.
//
// [dialogue] - The runtime walker with an explicit ended state.
//
// [script] - Hand-written TOML dialogue scripts, imported through the
// editor's authoring operations.
//
// [assets] - Named store persistence. Every write is validated by a full
// Load before it replaces the previous content.
//
// [render] - Graphviz node-link diagrams (DOT, SVG, PNG).
//
// [cache] - Diagram cache keyed by store hash.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Structured error codes shared by every package.
//
// [observability] - Hook interfaces for editor, playback and storage events.
//
// # Testing
//
//	go test ./pkg/...                                     # All tests
//	DIALOGUEGRAPH_TEST_REDIS=localhost:6379 go test ./pkg/assets/
//	DIALOGUEGRAPH_TEST_MONGO=mongodb://localhost go test ./pkg/assets/
//
// [store]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/store
// [editor]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/editor
// [dialogue]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/dialogue
// [script]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/script
// [assets]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/assets
// [render]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/dialoguegraph/pkg/observability
package pkg
