// Package memory implements the code claim store as a process-local map.
//
// LIMITATION: this guard only coordinates callers inside one process. Under
// horizontal scaling it cannot prevent a double exchange, which is exactly
// the bug the persistent stores exist to fix. It is for dev and tests only;
// the wiring layer refuses it when app.env is prod.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/socialgate/internal/codeguard"
)

type Guard struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

func New() *Guard {
	return &Guard{claims: make(map[string]time.Time)}
}

func (g *Guard) Claim(ctx context.Context, rawCode string) (codeguard.Result, error) {
	if err := ctx.Err(); err != nil {
		return codeguard.AlreadyClaimed, err
	}
	hash := codeguard.HashCode(rawCode)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.claims[hash]; ok {
		return codeguard.AlreadyClaimed, nil
	}
	g.claims[hash] = time.Now()
	return codeguard.Granted, nil
}

func (g *Guard) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	g.mu.Lock()
	defer g.mu.Unlock()

	var n int64
	for hash, at := range g.claims {
		if at.Before(cutoff) {
			delete(g.claims, hash)
			n++
		}
	}
	return n, nil
}
