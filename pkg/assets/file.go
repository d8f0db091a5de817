package assets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

const fileExt = ".json"

// FileRepository stores each graph as <dir>/<name>.json.
type FileRepository struct {
	mu  sync.RWMutex
	dir string
}

// NewFileRepository creates a file repository in dir, creating the
// directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		return nil, errors.New("file repository: no directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapBackend("file", "create dir", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(name string) string {
	return filepath.Join(r.dir, name+fileExt)
}

// Get reads a graph file.
func (r *FileRepository) Get(ctx context.Context, name string) (s *store.Store, err error) {
	start := time.Now()
	defer func() { observeGet(ctx, "file", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, err = store.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, decodeErr(name, err)
	}
	return s, nil
}

// Put writes a graph file atomically.
func (r *FileRepository) Put(ctx context.Context, name string, s *store.Store) (err error) {
	start := time.Now()
	size := 0
	defer func() { observePut(ctx, "file", name, size, start, err) }()

	data, err := encode(name, s)
	if err != nil {
		return err
	}
	size = len(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := store.WriteFile(s, r.path(name)); err != nil {
		return wrapBackend("file", "write", err)
	}
	return nil
}

// Delete removes a graph file.
func (r *FileRepository) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(name)
	}
	if err != nil {
		return wrapBackend("file", "remove", err)
	}
	observability.Storage().OnDelete(ctx, "file", name)
	return nil
}

// List returns the names of all graph files. Temporary files left by an
// interrupted write are ignored.
func (r *FileRepository) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, wrapBackend("file", "read dir", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(names)
	return names, nil
}

// Close does nothing for file repositories.
func (r *FileRepository) Close() error { return nil }

// Dir returns the directory holding the graph files.
func (r *FileRepository) Dir() string { return r.dir }

var _ Repository = (*FileRepository)(nil)
