package editor

import (
	"time"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// =============================================================================
// Save
// =============================================================================

// Save flattens the graph into a new store. Nodes keep creation order and
// ports keep slot order; port i of a record always describes slot i.
func (g *Graph) Save() *store.Store {
	start := time.Now()
	records := make([]store.Node, 0, len(g.order))
	edges := 0

	for _, n := range g.order {
		ports := make([]store.OutputPort, len(n.Outputs))
		for i, s := range n.Outputs {
			connected := store.EmptyPortID
			if s.Edge != nil {
				connected = s.Edge.To.ID
				edges++
			}
			ports[i] = store.OutputPort{Name: s.Name, ConnectedID: connected}
		}
		pos := n.Position
		records = append(records, store.Node{
			ID:          n.ID,
			OutputPorts: ports,
			Position:    &pos,
			Data:        n.Data.Clone(),
		})
	}

	observability.Editor().OnSave(g.cfg.ctx, len(records), edges, time.Since(start))
	return store.New(records...)
}

// =============================================================================
// Load
// =============================================================================

// Load reconstructs a graph from s. It returns an error, and no graph, when
// s violates a store invariant.
func Load(s *store.Store, opts ...Option) (*Graph, error) {
	g := New(opts...)
	if err := g.load(s); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadInto replaces the graph's content with the reconstruction of s. On
// error the graph is left untouched.
func (g *Graph) LoadInto(s *store.Store) error {
	fresh := &Graph{cfg: g.cfg}
	fresh.clear()
	if err := fresh.load(s); err != nil {
		return err
	}
	g.nodes, g.order = fresh.nodes, fresh.order
	return nil
}

func (g *Graph) load(s *store.Store) (err error) {
	start := time.Now()
	defer func() {
		observability.Editor().OnLoad(g.cfg.ctx, g.NodeCount(), g.EdgeCount(), time.Since(start), err)
	}()

	if err := checkRecords(s); err != nil {
		return err
	}

	// Pass 1: nodes and output slots.
	for _, rec := range s.Nodes {
		var n *Node
		if rec.ID == store.StartNodeID {
			n = g.CreateStartNodeIfAbsent()
		} else {
			n = g.newNode(rec.ID, store.Position{})
			n.Title = DefaultNodeTitle
		}
		if rec.Position != nil {
			n.Position = *rec.Position
		}
		if rec.Data != nil {
			n.Data = rec.Data.Clone()
			if text := rec.Text(); text != "" {
				n.Title = text
			}
		}
		for _, p := range rec.OutputPorts {
			g.addSlot(n, p.Name)
		}
	}

	// Pass 2: edges, matched to slots by port index.
	for _, rec := range s.Nodes {
		src := g.nodes[rec.ID]
		for i, p := range rec.OutputPorts {
			if !p.Connected() {
				continue
			}
			dst, ok := g.nodes[p.ConnectedID]
			if !ok {
				if g.cfg.skipDangling {
					g.cfg.logger.Warn("skipping dangling port", "node", rec.ID, "port", i, "target", p.ConnectedID)
					continue
				}
				return apperr.New(apperr.ErrCodeDanglingReference,
					"node %q port %d references unknown node %q", rec.ID, i, p.ConnectedID)
			}
			if err := g.link(src, src.Outputs[i], dst); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidConnection, err, "node %q port %d", rec.ID, i)
			}
		}
	}

	g.cfg.logger.Debug("loaded graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// checkRecords rejects stores whose node ids cannot be materialized: empty
// or repeated ids and a missing or repeated start record.
func checkRecords(s *store.Store) error {
	if s == nil {
		return apperr.New(apperr.ErrCodeMissingStartNode, "no store to load")
	}
	seen := make(map[string]bool, len(s.Nodes))
	for _, rec := range s.Nodes {
		switch {
		case rec.ID == store.EmptyPortID:
			return apperr.New(apperr.ErrCodeInvalidInput, "node record with empty id")
		case seen[rec.ID] && rec.ID == store.StartNodeID:
			return apperr.New(apperr.ErrCodeDuplicateStartNode, "store has more than one %q node", store.StartNodeID)
		case seen[rec.ID]:
			return apperr.New(apperr.ErrCodeDuplicateNodeID, "duplicate node id %q", rec.ID)
		}
		seen[rec.ID] = true
	}
	if !seen[store.StartNodeID] {
		return apperr.New(apperr.ErrCodeMissingStartNode, "store has no %q node", store.StartNodeID)
	}
	return nil
}
