package assets

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// RedisRepository stores graphs as JSON strings under <prefix>graph:<name>
// and tracks names in the set <prefix>graphs.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository connects to addr and verifies the connection.
func NewRedisRepository(ctx context.Context, addr, prefix string) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrapBackend("redis", "ping "+addr, err)
	}
	return NewRedisRepositoryFromClient(client, prefix), nil
}

// NewRedisRepositoryFromClient wraps an existing client. The repository
// takes ownership and closes it on Close.
func NewRedisRepositoryFromClient(client redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(name string) string { return r.prefix + "graph:" + name }
func (r *RedisRepository) setKey() string         { return r.prefix + "graphs" }

// Get reads a graph.
func (r *RedisRepository) Get(ctx context.Context, name string) (s *store.Store, err error) {
	start := time.Now()
	defer func() { observeGet(ctx, "redis", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapBackend("redis", "get", err)
	}
	s, err = store.Unmarshal(data)
	if err != nil {
		return nil, decodeErr(name, err)
	}
	return s, nil
}

// Put writes the graph and registers its name in one transaction.
func (r *RedisRepository) Put(ctx context.Context, name string, s *store.Store) (err error) {
	start := time.Now()
	var data []byte
	defer func() { observePut(ctx, "redis", name, len(data), start, err) }()

	data, err = encode(name, s)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(name), data, 0)
		pipe.SAdd(ctx, r.setKey(), name)
		return nil
	})
	if err != nil {
		return wrapBackend("redis", "set", err)
	}
	return nil
}

// Delete removes a graph and its name.
func (r *RedisRepository) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(name))
		pipe.SRem(ctx, r.setKey(), name)
		return nil
	})
	if err != nil {
		return wrapBackend("redis", "del", err)
	}
	if del.Val() == 0 {
		return notFound(name)
	}
	observability.Storage().OnDelete(ctx, "redis", name)
	return nil
}

// List returns the registered names.
func (r *RedisRepository) List(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, r.setKey()).Result()
	if err != nil {
		return nil, wrapBackend("redis", "smembers", err)
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the client.
func (r *RedisRepository) Close() error { return r.client.Close() }

var _ Repository = (*RedisRepository)(nil)
