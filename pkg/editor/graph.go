package editor

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// Authoring defaults.
const (
	DefaultPortName  = "Out"
	DefaultNodeTitle = "New Node"
	StartNodeTitle   = "START"
)

// StartPosition is where a fresh start node is placed.
var StartPosition = store.Position{X: 40, Y: 40}

// =============================================================================
// Types
// =============================================================================

// Node is a vertex of the editable graph.
type Node struct {
	ID        string
	Title     string
	Position  store.Position
	Data      *store.NodeData
	Deletable bool

	// Input is the single multi-capacity attachment point. It is nil for
	// the start node, which is a pure source.
	Input   *Input
	Outputs []*Slot
}

// IsStart reports whether n is the start node.
func (n *Node) IsStart() bool { return n.ID == store.StartNodeID }

// Input collects every edge that terminates at a node.
type Input struct {
	Node  *Node
	edges []*Edge
}

// Edges returns the inbound edges in connection order.
func (in *Input) Edges() []*Edge { return slices.Clone(in.edges) }

// Slot is a named, single-capacity output of a node.
type Slot struct {
	Name string
	Node *Node
	Edge *Edge // nil when unbound
}

// Index returns the slot's position among its node's outputs, or -1.
func (s *Slot) Index() int { return slices.Index(s.Node.Outputs, s) }

// Edge binds an output slot to a destination node's input.
type Edge struct {
	From *Node
	Port *Slot
	To   *Node
}

// =============================================================================
// Options
// =============================================================================

type config struct {
	ctx          context.Context
	logger       *log.Logger
	newID        func() string
	skipDangling bool
}

// Option configures a Graph.
type Option func(*config)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator replaces the random node id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithSkipDangling makes Load log and skip ports whose destination does not
// exist instead of failing.
func WithSkipDangling() Option {
	return func(c *config) { c.skipDangling = true }
}

func newConfig(opts []Option) config {
	c := config{
		ctx:    context.Background(),
		logger: log.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the in-memory editable dialogue graph.
//
// The zero value is not usable; create graphs with New or Load.
type Graph struct {
	cfg   config
	nodes map[string]*Node
	order []*Node
}

// New returns a graph holding only the start node.
func New(opts ...Option) *Graph {
	g := &Graph{cfg: newConfig(opts)}
	g.clear()
	return g
}

func (g *Graph) clear() {
	g.nodes = make(map[string]*Node)
	g.order = nil
	g.CreateStartNodeIfAbsent()
}

// Reset discards every node and edge and restores a lone start node.
func (g *Graph) Reset() { g.clear() }

// CreateStartNodeIfAbsent returns the start node, creating it first if the
// graph has none.
func (g *Graph) CreateStartNodeIfAbsent() *Node {
	if n, ok := g.nodes[store.StartNodeID]; ok {
		return n
	}
	n := &Node{
		ID:       store.StartNodeID,
		Title:    StartNodeTitle,
		Position: StartPosition,
	}
	g.insert(n)
	return n
}

// CreateNode adds a node at pos with a fresh id, one input and one default
// output slot, and returns its id.
func (g *Graph) CreateNode(pos store.Position) string {
	n := g.newNode(g.freshID(), pos)
	n.Title = DefaultNodeTitle
	g.addSlot(n, DefaultPortName)
	return n.ID
}

// CreateDialogueNode is CreateNode with a dialogue payload. The node title
// mirrors the text.
func (g *Graph) CreateDialogueNode(pos store.Position, text string) string {
	n := g.newNode(g.freshID(), pos)
	n.Data = store.Dialogue(text)
	n.Title = text
	g.addSlot(n, DefaultPortName)
	return n.ID
}

// freshID asks the configured generator for an unused id, falling back to
// random UUIDs if the generator keeps colliding.
func (g *Graph) freshID() string {
	gen := g.cfg.newID
	for attempt := 0; ; attempt++ {
		if attempt == 8 {
			gen = uuid.NewString
		}
		id := gen()
		if _, taken := g.nodes[id]; !taken && id != store.EmptyPortID {
			return id
		}
	}
}

// newNode inserts a deletable node with an input and no outputs.
func (g *Graph) newNode(id string, pos store.Position) *Node {
	n := &Node{ID: id, Position: pos, Deletable: true}
	n.Input = &Input{Node: n}
	g.insert(n)
	return n
}

func (g *Graph) insert(n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n)
}

// RemoveNode deletes a node and every edge touching it. The start node
// cannot be removed.
func (g *Graph) RemoveNode(id string) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	if !n.Deletable {
		return apperr.New(apperr.ErrCodeStartNodeProtected, "node %q cannot be deleted", id)
	}
	for _, e := range n.Input.Edges() {
		g.unlink(e)
	}
	for _, s := range n.Outputs {
		if s.Edge != nil {
			g.unlink(s.Edge)
		}
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(o *Node) bool { return o == n })
	return nil
}

// MoveNode updates a node's editor position.
func (g *Graph) MoveNode(id string, pos store.Position) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	n.Position = pos
	return nil
}

// SetDialogue sets the dialogue text of a node and mirrors it in the title.
func (g *Graph) SetDialogue(id, text string) error {
	n, err := g.lookup(id)
	if err != nil {
		return err
	}
	n.Data = store.Dialogue(text)
	n.Title = text
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Start returns the start node.
func (g *Graph) Start() *Node { return g.nodes[store.StartNodeID] }

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.order) }

// NodeCount returns the number of nodes, start node included.
func (g *Graph) NodeCount() int { return len(g.order) }

// Edges returns every edge, ordered by source node then slot.
func (g *Graph) Edges() []*Edge {
	var edges []*Edge
	for _, n := range g.order {
		for _, s := range n.Outputs {
			if s.Edge != nil {
				edges = append(edges, s.Edge)
			}
		}
	}
	return edges
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges()) }

// Inbound returns the edges terminating at id. The start node and unknown
// ids have none.
func (g *Graph) Inbound(id string) []*Edge {
	n, ok := g.nodes[id]
	if !ok || n.Input == nil {
		return nil
	}
	return n.Input.Edges()
}

// CompatibleTargets returns the ids of nodes that may receive an edge from
// src: every other node that has an input, in creation order.
func (g *Graph) CompatibleTargets(src string) []string {
	var ids []string
	for _, n := range g.order {
		if n.ID != src && n.Input != nil {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (g *Graph) lookup(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, apperr.New(apperr.ErrCodeNodeNotFound, "node %q not found", id)
	}
	return n, nil
}
