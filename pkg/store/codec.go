package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes the store as indented JSON. Node and port order are kept
// exactly as stored.
func Marshal(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a store from JSON bytes.
func Unmarshal(data []byte) (*Store, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes the store as indented JSON to w.
func Write(s *Store, w io.Writer) error {
	out := s
	if out.Nodes == nil {
		out = &Store{Nodes: []Node{}}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON store from r. Missing port lists decode as empty.
func Read(r io.Reader) (*Store, error) {
	var s Store
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range s.Nodes {
		if s.Nodes[i].OutputPorts == nil {
			s.Nodes[i].OutputPorts = []OutputPort{}
		}
	}
	s.Replace(s.Nodes)
	return &s, nil
}

// WriteFile writes the store to path. The content is written to a temporary
// file in the same directory and renamed into place, so a failed write
// never leaves a truncated asset behind.
func WriteFile(s *Store, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(s, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a JSON store from path.
func ReadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Hash returns the SHA-256 hex digest of the store's canonical encoding.
// Equal stores hash equally; it is used as an ETag by storage backends.
func Hash(s *Store) string {
	if s.Nodes == nil {
		s = &Store{Nodes: []Node{}}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
