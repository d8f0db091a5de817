// Package render draws dialogue graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] converts a Graph Store into Graphviz DOT source. Nodes show their
// dialogue text (or id), edges are labeled with the output port name, and
// the start node is drawn with a double outline. The layout runs left to
// right, matching how dialogue reads in the editor.
//
// # Usage
//
//	dot := render.ToDOT(s, render.Options{ShowOpenPorts: true})
//	svg, err := render.RenderSVG(dot)
//	png, err := render.RenderPNG(dot)
//
// [Diagram] combines both steps and keeps SVG and PNG results in a
// cache.Cache, keyed by the store hash and options:
//
//	svg, hit, err := render.Diagram(ctx, c, s, opts, render.FormatSVG)
//
// # Options
//
//   - ShowOpenPorts: draw unconnected ports as dashed stubs ending in a dot
//   - MaxLabel: truncate node labels to this many runes (default 40)
//
// Ports that reference a missing node are always drawn, in red, so broken
// stores can be inspected before they are repaired.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package render
