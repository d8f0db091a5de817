// Package assets persists named Graph Stores.
//
// A [Repository] maps asset names to stores. Several backends are
// available:
//   - file: one JSON file per asset, for CLI use
//   - memory: in-process map, for tests and the demo server
//   - redis: shared storage for multi-instance servers
//   - mongo: document storage, nodes kept as native BSON
//   - sqlite: single-file database
//
// Every Put validates the store by reconstructing it with editor.Load
// before anything is written, so an invalid store never replaces a good
// one. Get of an unknown name returns an error matching [ErrNotFound].
//
// # Usage
//
//	repo, err := assets.Open(ctx, cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	s, err := repo.Get(ctx, "tavern")
//	if errors.Is(err, assets.ErrNotFound) {
//	    // no such graph
//	}
package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/config"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// ErrNotFound is returned when no asset has the requested name.
var ErrNotFound = errors.New("graph not found")

// Repository stores Graph Stores by name. Implementations are safe for
// concurrent use.
type Repository interface {
	// Get returns the store saved under name.
	Get(ctx context.Context, name string) (*store.Store, error)

	// Put validates s and saves it under name, replacing any previous
	// content.
	Put(ctx context.Context, name string, s *store.Store) error

	// Delete removes the asset.
	Delete(ctx context.Context, name string) error

	// List returns all asset names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Open creates the repository selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Storage) (Repository, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileRepository(cfg.Dir)
	case config.BackendMemory:
		return NewMemoryRepository(), nil
	case config.BackendRedis:
		return NewRedisRepository(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case config.BackendMongo:
		return NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendSQLite:
		return NewSQLiteRepository(ctx, cfg.SQLitePath)
	default:
		return nil, apperr.New(apperr.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
}

// =============================================================================
// Shared helpers
// =============================================================================

func validName(name string) error {
	return apperr.ValidateAssetName(name)
}

// encode validates name and s and returns the canonical encoding.
func encode(name string, s *store.Store) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if _, err := editor.Load(s); err != nil {
		return nil, apperr.Wrap(apperr.GetCode(err), err, "refusing to save %q", name)
	}
	return store.Marshal(s)
}

func notFound(name string) error {
	return apperr.Wrap(apperr.ErrCodeNotFound, ErrNotFound, "graph %q", name)
}

func decodeErr(name string, err error) error {
	return apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "graph %q is corrupt", name)
}

// normalize gives every node a non-nil port list and rebuilds the index.
func normalize(nodes []store.Node) *store.Store {
	for i := range nodes {
		if nodes[i].OutputPorts == nil {
			nodes[i].OutputPorts = []store.OutputPort{}
		}
	}
	return store.New(nodes...)
}

func observeGet(ctx context.Context, backend, name string, start time.Time, err error) {
	observability.Storage().OnGet(ctx, backend, name, err == nil, time.Since(start))
}

func observePut(ctx context.Context, backend, name string, size int, start time.Time, err error) {
	observability.Storage().OnPut(ctx, backend, name, size, time.Since(start), err)
}

func wrapBackend(backend, op string, err error) error {
	return fmt.Errorf("%s %s: %w", backend, op, err)
}
