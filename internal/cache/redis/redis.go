// Package redis is the shared cache backend. When gateway instances are
// horizontally scaled, webhook dedup must run on this backend so all
// instances see the same recently-seen set.
package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Cache struct {
	c      *rdb.Client
	prefix string
}

func New(addr string, db int, prefix string) *Cache {
	return &Cache{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *Cache) key(k string) string { return r.prefix + k }

func (r *Cache) Get(k string) ([]byte, bool) {
	b, err := r.c.Get(context.Background(), r.key(k)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Cache) Set(k string, v []byte, ttl time.Duration) {
	_ = r.c.Set(context.Background(), r.key(k), v, ttl).Err()
}

func (r *Cache) Delete(k string) { _ = r.c.Del(context.Background(), r.key(k)).Err() }

// Add uses SET NX, so it is atomic across all gateway instances.
func (r *Cache) Add(k string, v []byte, ttl time.Duration) bool {
	ok, err := r.c.SetNX(context.Background(), r.key(k), v, ttl).Result()
	return err == nil && ok
}

// Ping checks connectivity, for readiness probes.
func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

// Close releases the underlying client.
func (r *Cache) Close() error { return r.c.Close() }
