package render

import (
	"context"

	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// Diagram renders s in the given format, reusing a previous result from c
// when the store and options are unchanged. The boolean reports a cache
// hit. DOT output is cheap and never cached; a nil cache disables caching.
// Cache failures degrade to a fresh render.
func Diagram(ctx context.Context, c cache.Cache, s *store.Store, opts Options, format string) ([]byte, bool, error) {
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = DefaultMaxLabel
	}
	dot := ToDOT(s, opts)
	if c == nil || format == FormatDOT || format == "" {
		out, err := Render(dot, format)
		return out, false, err
	}

	key := cache.DiagramKey(store.Hash(s), format, opts.ShowOpenPorts, opts.MaxLabel)
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	out, err := Render(dot, format)
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, out, 0)
	return out, false, nil
}
