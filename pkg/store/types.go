package store

import (
	"errors"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Reserved identifiers. Both values are part of the persisted format.
const (
	// StartNodeID is the id of the unique, non-deletable entry node.
	StartNodeID = "startnode"

	// EmptyPortID is the ConnectedID of an output port that leads nowhere.
	EmptyPortID = ""
)

// Node kinds.
const (
	KindDialogue = "dialogue"
)

// =============================================================================
// Records
// =============================================================================

// OutputPort is one labeled, single-destination exit from a node.
type OutputPort struct {
	Name        string `json:"name" bson:"name" toml:"name"`
	ConnectedID string `json:"connectedId" bson:"connected_id" toml:"connected_id"`
}

// Connected reports whether the port leads to another node.
func (p OutputPort) Connected() bool { return p.ConnectedID != EmptyPortID }

// Position is the editor location of a node. It carries no runtime meaning.
type Position struct {
	X float64 `json:"x" bson:"x" toml:"x"`
	Y float64 `json:"y" bson:"y" toml:"y"`
}

// DialogueInfo is the payload of a dialogue node.
type DialogueInfo struct {
	Text string `json:"text" bson:"text" toml:"text"`
}

// NodeData is the per-kind payload attached to a node. Kind selects which
// variant field is meaningful; unknown kinds are preserved but carry no
// payload.
type NodeData struct {
	Kind     string        `json:"kind" bson:"kind" toml:"kind"`
	Dialogue *DialogueInfo `json:"dialogue,omitempty" bson:"dialogue,omitempty" toml:"dialogue,omitempty"`
}

// Dialogue returns a dialogue payload with the given text.
func Dialogue(text string) *NodeData {
	return &NodeData{Kind: KindDialogue, Dialogue: &DialogueInfo{Text: text}}
}

// Clone returns a deep copy of d, or nil.
func (d *NodeData) Clone() *NodeData {
	if d == nil {
		return nil
	}
	out := &NodeData{Kind: d.Kind}
	if d.Dialogue != nil {
		info := *d.Dialogue
		out.Dialogue = &info
	}
	return out
}

// Node is the persisted record of one graph node.
type Node struct {
	ID          string       `json:"id" bson:"id" toml:"id"`
	OutputPorts []OutputPort `json:"outputPorts" bson:"output_ports" toml:"output_ports"`
	Position    *Position    `json:"position,omitempty" bson:"position,omitempty" toml:"position,omitempty"`
	Data        *NodeData    `json:"data,omitempty" bson:"data,omitempty" toml:"data,omitempty"`
}

// IsStart reports whether n is the start node.
func (n *Node) IsStart() bool { return n.ID == StartNodeID }

// Text returns the dialogue text of the node, or "" for other kinds.
func (n *Node) Text() string {
	if n.Data == nil || n.Data.Kind != KindDialogue || n.Data.Dialogue == nil {
		return ""
	}
	return n.Data.Dialogue.Text
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := Node{
		ID:          n.ID,
		OutputPorts: append([]OutputPort(nil), n.OutputPorts...),
		Data:        n.Data.Clone(),
	}
	if out.OutputPorts == nil {
		out.OutputPorts = []OutputPort{}
	}
	if n.Position != nil {
		pos := *n.Position
		out.Position = &pos
	}
	return out
}

// Edge is a connection derived from an output port.
type Edge struct {
	From string // Source node id
	Port int    // Index of the output port on the source node
	Name string // Port label
	To   string // Destination node id
}

// =============================================================================
// Store
// =============================================================================

// Store is the flat Graph Store. The zero value is an empty, usable store.
//
// Lookups are served from an id index built on first use. Code that edits
// Nodes in place without changing its length must call Reindex.
type Store struct {
	Nodes []Node `json:"nodes" bson:"nodes" toml:"nodes"`

	index map[string]int
	size  int
}

// New returns a store holding the given nodes.
func New(nodes ...Node) *Store {
	s := &Store{}
	s.Replace(nodes)
	return s
}

// Replace overwrites the node collection wholesale.
func (s *Store) Replace(nodes []Node) {
	if nodes == nil {
		nodes = []Node{}
	}
	s.Nodes = nodes
	s.Reindex()
}

// Reindex rebuilds the id index. When ids repeat, the first record wins.
func (s *Store) Reindex() {
	s.index = make(map[string]int, len(s.Nodes))
	for i := range s.Nodes {
		if _, dup := s.index[s.Nodes[i].ID]; !dup {
			s.index[s.Nodes[i].ID] = i
		}
	}
	s.size = len(s.Nodes)
}

// Lookup returns the node with the given id. Unknown ids, including
// EmptyPortID, report false.
func (s *Store) Lookup(id string) (*Node, bool) {
	if s == nil || id == EmptyPortID {
		return nil, false
	}
	if s.index == nil || s.size != len(s.Nodes) {
		s.Reindex()
	}
	i, ok := s.index[id]
	if ok && s.Nodes[i].ID != id {
		s.Reindex()
		i, ok = s.index[id]
	}
	if !ok {
		return nil, false
	}
	return &s.Nodes[i], true
}

// StartNode returns the start node, if present.
func (s *Store) StartNode() (*Node, bool) {
	return s.Lookup(StartNodeID)
}

// Len returns the number of node records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// Edges returns every connected port as an edge, in node then port order.
func (s *Store) Edges() []Edge {
	var edges []Edge
	for _, n := range s.Nodes {
		for i, p := range n.OutputPorts {
			if !p.Connected() {
				continue
			}
			edges = append(edges, Edge{From: n.ID, Port: i, Name: p.Name, To: p.ConnectedID})
		}
	}
	return edges
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	nodes := make([]Node, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = n.Clone()
	}
	return New(nodes...)
}

// Validate reports every invariant violation in the store: duplicate ids,
// a missing or repeated start node, and ports whose ConnectedID does not
// resolve. The result joins one coded error per finding.
func (s *Store) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(s.Nodes))
	starts := 0

	for _, n := range s.Nodes {
		if n.ID == StartNodeID {
			starts++
			if starts == 2 {
				errs = append(errs, apperr.New(apperr.ErrCodeDuplicateStartNode, "store has more than one %q node", StartNodeID))
			}
			continue
		}
		if n.ID == EmptyPortID {
			errs = append(errs, apperr.New(apperr.ErrCodeInvalidInput, "node with empty id"))
			continue
		}
		if seen[n.ID] {
			errs = append(errs, apperr.New(apperr.ErrCodeDuplicateNodeID, "duplicate node id %q", n.ID))
		}
		seen[n.ID] = true
	}
	if starts == 0 {
		errs = append(errs, apperr.New(apperr.ErrCodeMissingStartNode, "store has no %q node", StartNodeID))
	}

	for _, n := range s.Nodes {
		for i, p := range n.OutputPorts {
			switch {
			case !p.Connected():
			case p.ConnectedID == n.ID:
				errs = append(errs, apperr.New(apperr.ErrCodeInvalidConnection,
					"node %q port %d connects to itself", n.ID, i))
			case p.ConnectedID == StartNodeID && starts > 0:
				errs = append(errs, apperr.New(apperr.ErrCodeInvalidConnection,
					"node %q port %d connects to the start node, which has no input", n.ID, i))
			case !seen[p.ConnectedID]:
				errs = append(errs, apperr.New(apperr.ErrCodeDanglingReference,
					"node %q port %d references unknown node %q", n.ID, i, p.ConnectedID))
			}
		}
	}

	return errors.Join(errs...)
}
