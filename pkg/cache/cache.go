// Package cache stores rendered diagrams so unchanged graphs are not sent
// through Graphviz again.
//
// Keys are derived from the Graph Store hash plus the render options, so an
// edited graph never hits a stale entry and entries need no invalidation.
// The CLI uses a FileCache under the XDG cache directory; the HTTP server
// uses a MemoryCache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte store with per-entry expiry. A zero ttl never expires.
// A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DiagramKey identifies a rendered diagram of the store with the given
// hash.
func DiagramKey(storeHash, format string, showOpenPorts bool, maxLabel int) string {
	return hashKey("diagram", storeHash, format, showOpenPorts, maxLabel)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash computes the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
