// Package memory is the process-local cache backend. Dedup backed by this
// cache is best-effort per instance: independently scaled gateway instances
// do not share it. Use the redis backend when instances are distributed.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

type Mem struct{ c *gocache.Cache }

func New(defaultTTL time.Duration) cache.Cache {
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Mem) Get(k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Mem) Set(k string, v []byte, ttl time.Duration) { m.c.Set(k, v, ttl) }
func (m *Mem) Delete(k string)                           { m.c.Delete(k) }

func (m *Mem) Add(k string, v []byte, ttl time.Duration) bool {
	return m.c.Add(k, v, ttl) == nil
}
