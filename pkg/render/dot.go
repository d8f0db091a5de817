package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// DefaultMaxLabel is the label length used when Options.MaxLabel is zero.
const DefaultMaxLabel = 40

// Formats accepted by Render.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options configures diagram generation.
type Options struct {
	// ShowOpenPorts draws unconnected output ports as dashed stubs.
	ShowOpenPorts bool

	// MaxLabel truncates node labels. Zero means DefaultMaxLabel.
	MaxLabel int
}

// ToDOT converts a store to Graphviz DOT source. Nodes and edges are
// emitted in stored order.
func ToDOT(s *store.Store, opts Options) string {
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = DefaultMaxLabel
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range s.Nodes {
		n := &s.Nodes[i]
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.MaxLabel), ", "))
	}

	buf.WriteString("\n")
	missing := make(map[string]bool)
	stubs := stubNamer(s)
	for _, n := range s.Nodes {
		for _, p := range n.OutputPorts {
			switch {
			case !p.Connected():
				if !opts.ShowOpenPorts {
					continue
				}
				stub := stubs()
				fmt.Fprintf(&buf, "  %q [shape=point, width=0.08, label=\"\"];\n", stub)
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, arrowhead=none];\n", n.ID, stub, p.Name)
			default:
				if _, ok := s.Lookup(p.ConnectedID); !ok && !missing[p.ConnectedID] {
					missing[p.ConnectedID] = true
					fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", color=red, fontcolor=red];\n",
						p.ConnectedID, "missing: "+p.ConnectedID)
				}
				attrs := []string{fmt.Sprintf("label=%q", p.Name)}
				if missing[p.ConnectedID] {
					attrs = append(attrs, "color=red", "style=dashed")
				}
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", n.ID, p.ConnectedID, strings.Join(attrs, ", "))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// stubNamer returns a generator of ids for open-port stubs that collide
// with no node id and no edge target in s.
func stubNamer(s *store.Store) func() string {
	taken := make(map[string]bool)
	for _, n := range s.Nodes {
		taken[n.ID] = true
		for _, p := range n.OutputPorts {
			taken[p.ConnectedID] = true
		}
	}
	next := 0
	return func() string {
		for {
			id := "__open_" + strconv.Itoa(next)
			next++
			if !taken[id] {
				return id
			}
		}
	}
}

func nodeAttrs(n *store.Node, limit int) []string {
	label := n.Text()
	if label == "" {
		label = n.ID
	}
	attrs := []string{fmt.Sprintf("label=%q", truncate(label, limit))}
	if n.IsStart() {
		attrs = append(attrs, "peripheries=2", "fillcolor=\"#e8f0fe\"")
	}
	return attrs
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// Render converts DOT source to the requested format.
func Render(dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT, "":
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(dot)
	case FormatPNG:
		return RenderPNG(dot)
	default:
		return nil, fmt.Errorf("unsupported format %q (want dot, svg or png)", format)
	}
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := renderGraphviz(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderGraphviz(dot, graphviz.PNG)
}

func renderGraphviz(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with a
// pixel-sized one so the diagram scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
