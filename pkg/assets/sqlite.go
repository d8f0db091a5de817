package assets

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS graphs (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	hash       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteRepository stores graphs as JSON blobs in a single table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, errors.New("sqlite repository: no database path configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrapBackend("sqlite", "create dir", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, wrapBackend("sqlite", "open", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, wrapBackend("sqlite", "migrate", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Get reads a graph row.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (s *store.Store, err error) {
	start := time.Now()
	defer func() { observeGet(ctx, "sqlite", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	var data []byte
	err = r.db.QueryRowContext(ctx, `SELECT data FROM graphs WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapBackend("sqlite", "select", err)
	}
	s, err = store.Unmarshal(data)
	if err != nil {
		return nil, decodeErr(name, err)
	}
	return s, nil
}

// Put inserts or replaces a graph row.
func (r *SQLiteRepository) Put(ctx context.Context, name string, s *store.Store) (err error) {
	start := time.Now()
	var data []byte
	defer func() { observePut(ctx, "sqlite", name, len(data), start, err) }()

	data, err = encode(name, s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO graphs (name, data, hash, updated_at) VALUES (?, ?, ?, ?)`,
		name, data, store.Hash(s), time.Now().Unix())
	if err != nil {
		return wrapBackend("sqlite", "insert", err)
	}
	return nil
}

// Delete removes a graph row.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return wrapBackend("sqlite", "delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(name)
	}
	observability.Storage().OnDelete(ctx, "sqlite", name)
	return nil
}

// List returns all graph names in ascending order.
func (r *SQLiteRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM graphs ORDER BY name`)
	if err != nil {
		return nil, wrapBackend("sqlite", "select", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapBackend("sqlite", "scan", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

var _ Repository = (*SQLiteRepository)(nil)
