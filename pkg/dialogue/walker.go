package dialogue

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// State is a snapshot of the walker. Node is nil exactly when Ended is set.
type State struct {
	Node  *store.Node
	Ended bool
}

// Text returns the dialogue text of the current node, or "".
func (s State) Text() string {
	if s.Node == nil {
		return ""
	}
	return s.Node.Text()
}

// Options returns the labels of the current node's output ports.
func (s State) Options() []string {
	if s.Node == nil {
		return nil
	}
	opts := make([]string, len(s.Node.OutputPorts))
	for i, p := range s.Node.OutputPorts {
		opts[i] = p.Name
	}
	return opts
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger for runtime warnings.
func WithLogger(l *log.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithContext sets the context passed to playback hooks.
func WithContext(ctx context.Context) Option {
	return func(w *Walker) {
		if ctx != nil {
			w.ctx = ctx
		}
	}
}

// Walker tracks the current node of one dialogue session. It is not safe
// for concurrent use.
type Walker struct {
	store   *store.Store
	ctx     context.Context
	logger  *log.Logger
	current *store.Node
	ended   bool
	history []string
}

// NewWalker returns a walker over s. The walker starts out ended; call
// Begin to enter the dialogue.
func NewWalker(s *store.Store, opts ...Option) *Walker {
	w := &Walker{
		store:  s,
		ctx:    context.Background(),
		logger: log.Default(),
		ended:  true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Begin moves the walker to the start node and clears the history.
func (w *Walker) Begin() (State, error) {
	w.history = w.history[:0]
	start, ok := w.store.StartNode()
	if !ok {
		w.current, w.ended = nil, true
		return w.state(), apperr.New(apperr.ErrCodeMissingStartNode,
			"graph has no %q node", store.StartNodeID)
	}
	w.enter(start)
	observability.Playback().OnBegin(w.ctx, start.ID)
	return w.state(), nil
}

// SelectOption follows output port index of the current node. An empty or
// unresolvable port ends the dialogue.
func (w *Walker) SelectOption(index int) (State, error) {
	if w.ended {
		return w.state(), apperr.New(apperr.ErrCodeDialogueEnded, "dialogue has ended")
	}
	from := w.current
	if index < 0 || index >= len(from.OutputPorts) {
		w.logger.Warn("invalid option", "node", from.ID, "index", index, "options", len(from.OutputPorts))
		return w.state(), apperr.New(apperr.ErrCodeInvalidPortIndex,
			"node %q has no option %d (has %d)", from.ID, index, len(from.OutputPorts))
	}

	target := from.OutputPorts[index].ConnectedID
	next, ok := w.store.Lookup(target)
	if !ok {
		if target != store.EmptyPortID {
			w.logger.Error("option leads to unknown node", "node", from.ID, "index", index, "target", target)
		}
		observability.Playback().OnSelect(w.ctx, from.ID, index, "")
		w.end()
		return w.state(), nil
	}
	observability.Playback().OnSelect(w.ctx, from.ID, index, next.ID)
	w.enter(next)
	return w.state(), nil
}

// Current returns the walker's state.
func (w *Walker) Current() State { return w.state() }

// Ended reports whether the dialogue has terminated.
func (w *Walker) Ended() bool { return w.ended }

// History returns the ids visited since the last Begin, in order.
func (w *Walker) History() []string { return slices.Clone(w.history) }

func (w *Walker) enter(n *store.Node) {
	w.current, w.ended = n, false
	w.history = append(w.history, n.ID)
}

func (w *Walker) end() {
	last := ""
	if w.current != nil {
		last = w.current.ID
	}
	w.current, w.ended = nil, true
	observability.Playback().OnEnd(w.ctx, last, len(w.history))
}

func (w *Walker) state() State {
	return State{Node: w.current, Ended: w.ended}
}
