package editor

import (
	"slices"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
)

// AddOutputPort appends an output slot to a node and returns its index.
// An empty name becomes DefaultPortName.
func (g *Graph) AddOutputPort(nodeID, name string) (int, error) {
	n, err := g.lookup(nodeID)
	if err != nil {
		return -1, err
	}
	if err := apperr.ValidatePortName(name); err != nil {
		return -1, err
	}
	if name == "" {
		name = DefaultPortName
	}
	g.addSlot(n, name)
	return len(n.Outputs) - 1, nil
}

func (g *Graph) addSlot(n *Node, name string) *Slot {
	s := &Slot{Name: name, Node: n}
	n.Outputs = append(n.Outputs, s)
	return s
}

// RemoveOutputPort removes a slot and the edge it carries. Later slots
// shift down by one index.
func (g *Graph) RemoveOutputPort(nodeID string, portIndex int) error {
	n, s, err := g.slot(nodeID, portIndex)
	if err != nil {
		return err
	}
	if s.Edge != nil {
		g.unlink(s.Edge)
	}
	n.Outputs = slices.Delete(n.Outputs, portIndex, portIndex+1)
	return nil
}

// RenameOutputPort changes a slot's label. Connectivity is unaffected.
func (g *Graph) RenameOutputPort(nodeID string, portIndex int, name string) error {
	_, s, err := g.slot(nodeID, portIndex)
	if err != nil {
		return err
	}
	if err := apperr.ValidatePortName(name); err != nil {
		return err
	}
	s.Name = name
	return nil
}

// Connect binds output slot portIndex of src to the input of dst. A slot
// holds at most one edge: connecting a bound slot replaces its edge.
// Self-connections and connections into the start node are rejected.
func (g *Graph) Connect(srcID string, portIndex int, dstID string) error {
	src, s, err := g.slot(srcID, portIndex)
	if err != nil {
		return err
	}
	dst, err := g.lookup(dstID)
	if err != nil {
		return err
	}
	return g.link(src, s, dst)
}

// Disconnect unbinds an output slot. Unbound slots are left as they are.
func (g *Graph) Disconnect(srcID string, portIndex int) error {
	_, s, err := g.slot(srcID, portIndex)
	if err != nil {
		return err
	}
	if s.Edge != nil {
		g.unlink(s.Edge)
	}
	return nil
}

func (g *Graph) slot(nodeID string, portIndex int) (*Node, *Slot, error) {
	n, err := g.lookup(nodeID)
	if err != nil {
		return nil, nil, err
	}
	if portIndex < 0 || portIndex >= len(n.Outputs) {
		return nil, nil, apperr.New(apperr.ErrCodeInvalidPortIndex,
			"node %q has no output port %d (has %d)", nodeID, portIndex, len(n.Outputs))
	}
	return n, n.Outputs[portIndex], nil
}

func (g *Graph) link(src *Node, s *Slot, dst *Node) error {
	if src == dst {
		return apperr.New(apperr.ErrCodeInvalidConnection, "node %q cannot connect to itself", src.ID)
	}
	if dst.Input == nil {
		return apperr.New(apperr.ErrCodeInvalidConnection, "node %q has no input", dst.ID)
	}
	if s.Edge != nil {
		g.unlink(s.Edge)
	}
	e := &Edge{From: src, Port: s, To: dst}
	s.Edge = e
	dst.Input.edges = append(dst.Input.edges, e)
	return nil
}

func (g *Graph) unlink(e *Edge) {
	e.Port.Edge = nil
	e.To.Input.edges = slices.DeleteFunc(e.To.Input.edges, func(o *Edge) bool { return o == e })
}
