// Package script imports hand-written TOML dialogue scripts.
//
// A script lists nodes by a script-local key. Each option of a node becomes
// one output port, in the order written, and goto names the key of the
// node it leads to:
//
//	[[node]]
//	id = "startnode"
//	  [[node.option]]
//	  text = "Hello"
//	  goto = "greet"
//
//	[[node]]
//	id = "greet"
//	text = "Hi there!"
//	x = 300
//	y = 40
//
// Scripts are imported through the editor's authoring operations, so the
// result obeys the same invariants as a graph built by hand. Keys other
// than "startnode" are replaced by fresh node ids.
package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dialoguegraph/pkg/editor"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// Column spacing used for nodes that give no position.
const (
	autoSpacingX = 300
	autoOriginY  = 40
)

// Script is a parsed dialogue script.
type Script struct {
	Nodes []Node `toml:"node"`
}

// Node is one [[node]] table.
type Node struct {
	ID      string   `toml:"id"`
	Text    string   `toml:"text"`
	X       *float64 `toml:"x"`
	Y       *float64 `toml:"y"`
	Options []Choice `toml:"option"`
}

// Choice is one [[node.option]] table. An empty Goto leaves the port open.
type Choice struct {
	Text string `toml:"text"`
	Goto string `toml:"goto"`
}

// Parse decodes a script from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "parse script")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperr.New(apperr.ErrCodeInvalidFormat, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &s, nil
}

// ParseFile reads and decodes a script file.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Build creates an editable graph from the script. The options are passed
// to editor.New.
func (s *Script) Build(opts ...editor.Option) (*editor.Graph, error) {
	g := editor.New(opts...)
	ids, err := s.createNodes(g)
	if err != nil {
		return nil, err
	}
	if err := s.connect(g, ids); err != nil {
		return nil, err
	}
	return g, nil
}

// createNodes materializes every node and its ports, and returns the map
// from script key to node id.
func (s *Script) createNodes(g *editor.Graph) (map[string]string, error) {
	ids := make(map[string]string, len(s.Nodes))
	for i, n := range s.Nodes {
		if err := apperr.ValidateNodeID(n.ID); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "node %d", i+1)
		}
		if _, dup := ids[n.ID]; dup {
			if n.ID == store.StartNodeID {
				return nil, apperr.New(apperr.ErrCodeDuplicateStartNode, "script lists %q twice", n.ID)
			}
			return nil, apperr.New(apperr.ErrCodeDuplicateNodeID, "duplicate node %q", n.ID)
		}

		var id string
		if n.ID == store.StartNodeID {
			id = g.Start().ID
			if err := g.MoveNode(id, n.position(editor.StartPosition)); err != nil {
				return nil, err
			}
			if n.Text != "" {
				if err := g.SetDialogue(id, n.Text); err != nil {
					return nil, err
				}
			}
		} else {
			pos := n.position(store.Position{X: float64(i) * autoSpacingX, Y: autoOriginY})
			id = g.CreateDialogueNode(pos, n.Text)
			if len(n.Options) > 0 {
				if err := g.RemoveOutputPort(id, 0); err != nil {
					return nil, err
				}
			}
		}
		ids[n.ID] = id

		for _, opt := range n.Options {
			if _, err := g.AddOutputPort(id, opt.Text); err != nil {
				return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "node %q", n.ID)
			}
		}
	}
	if _, ok := ids[store.StartNodeID]; !ok && len(s.Nodes) > 0 {
		// A script without a start entry still gets one, linked to its
		// first node so the dialogue is playable.
		first := ids[s.Nodes[0].ID]
		if _, err := g.AddOutputPort(store.StartNodeID, ""); err != nil {
			return nil, err
		}
		if err := g.Connect(store.StartNodeID, 0, first); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *Script) connect(g *editor.Graph, ids map[string]string) error {
	for _, n := range s.Nodes {
		src := ids[n.ID]
		for i, opt := range n.Options {
			if opt.Goto == "" {
				continue
			}
			dst, ok := ids[opt.Goto]
			if !ok {
				return apperr.New(apperr.ErrCodeDanglingReference,
					"node %q option %d goes to unknown node %q", n.ID, i, opt.Goto)
			}
			if err := g.Connect(src, i, dst); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidConnection, err, "node %q option %d", n.ID, i)
			}
		}
	}
	return nil
}

func (n Node) position(fallback store.Position) store.Position {
	pos := fallback
	if n.X != nil {
		pos.X = *n.X
	}
	if n.Y != nil {
		pos.Y = *n.Y
	}
	return pos
}
