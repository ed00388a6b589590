// Package redis implements the code claim store on Redis. SET NX is the
// atomic unique insert; the key TTL doubles as the retention window, so no
// explicit purge is needed.
package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/socialgate/internal/codeguard"
)

const keyPrefix = "codeguard:claim:"

type Guard struct {
	c         *rdb.Client
	retention time.Duration
}

func New(addr string, db int, retention time.Duration) *Guard {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Guard{
		c:         rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		retention: retention,
	}
}

func (g *Guard) Claim(ctx context.Context, rawCode string) (codeguard.Result, error) {
	key := keyPrefix + codeguard.HashCode(rawCode)
	ok, err := g.c.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.retention).Result()
	if err != nil {
		// Fail closed: an unreachable store never grants.
		return codeguard.AlreadyClaimed, err
	}
	if !ok {
		return codeguard.AlreadyClaimed, nil
	}
	return codeguard.Granted, nil
}

// Ping checks connectivity, for readiness probes.
func (g *Guard) Ping(ctx context.Context) error { return g.c.Ping(ctx).Err() }

// Close releases the underlying client.
func (g *Guard) Close() error { return g.c.Close() }
