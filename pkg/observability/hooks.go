// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about graph editing, dialogue playback and asset storage.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPlaybackHooks(&myPlaybackHooks{})
//	    observability.SetStorageHooks(&myStorageHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnLoad(ctx, nodeCount, edgeCount, duration, err)
//	observability.Playback().OnSelect(ctx, fromID, index, toID)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from Save and Load of the in-memory graph.
type EditorHooks interface {
	// OnSave records a flatten of the in-memory graph into a Graph Store.
	OnSave(ctx context.Context, nodeCount, edgeCount int, duration time.Duration)

	// OnLoad records a two-pass reconstruction. err is non-nil when the
	// store was rejected.
	OnLoad(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)
}

// =============================================================================
// Playback Hooks
// =============================================================================

// PlaybackHooks receives events from the dialogue walker.
type PlaybackHooks interface {
	// OnBegin records entry into a dialogue at the start node.
	OnBegin(ctx context.Context, startID string)

	// OnSelect records an option choice. toID is empty when the choice
	// ended the dialogue.
	OnSelect(ctx context.Context, fromID string, index int, toID string)

	// OnEnd records dialogue termination after the given number of steps.
	OnEnd(ctx context.Context, lastID string, steps int)
}

// =============================================================================
// Storage Hooks
// =============================================================================

// StorageHooks receives events from asset repositories.
type StorageHooks interface {
	// OnGet records a read. found is false for missing assets.
	OnGet(ctx context.Context, backend, name string, found bool, duration time.Duration)

	// OnPut records a write of size bytes.
	OnPut(ctx context.Context, backend, name string, size int, duration time.Duration, err error)

	// OnDelete records a removal.
	OnDelete(ctx context.Context, backend, name string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnSave(context.Context, int, int, time.Duration)        {}
func (NoopEditorHooks) OnLoad(context.Context, int, int, time.Duration, error) {}

// NoopPlaybackHooks is a no-op implementation of PlaybackHooks.
type NoopPlaybackHooks struct{}

func (NoopPlaybackHooks) OnBegin(context.Context, string)               {}
func (NoopPlaybackHooks) OnSelect(context.Context, string, int, string) {}
func (NoopPlaybackHooks) OnEnd(context.Context, string, int)            {}

// NoopStorageHooks is a no-op implementation of StorageHooks.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnGet(context.Context, string, string, bool, time.Duration)       {}
func (NoopStorageHooks) OnPut(context.Context, string, string, int, time.Duration, error) {}
func (NoopStorageHooks) OnDelete(context.Context, string, string)                         {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks   EditorHooks   = NoopEditorHooks{}
	playbackHooks PlaybackHooks = NoopPlaybackHooks{}
	storageHooks  StorageHooks  = NoopStorageHooks{}
	hooksMu       sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetPlaybackHooks registers custom playback hooks.
func SetPlaybackHooks(h PlaybackHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		playbackHooks = h
	}
}

// SetStorageHooks registers custom storage hooks.
func SetStorageHooks(h StorageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storageHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Playback returns the registered playback hooks.
func Playback() PlaybackHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return playbackHooks
}

// Storage returns the registered storage hooks.
func Storage() StorageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storageHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	playbackHooks = NoopPlaybackHooks{}
	storageHooks = NoopStorageHooks{}
}
