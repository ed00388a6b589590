// Package pg implements the code claim store on Postgres. The uniqueness
// constraint on code_hash is the single synchronization point for the whole
// gateway fleet.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialgate/internal/codeguard"
)

type Guard struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Guard { return &Guard{pool: pool} }

// Claim inserts the claim row. A unique violation means some instance got
// there first; any other error is surfaced (fail closed).
func (g *Guard) Claim(ctx context.Context, rawCode string) (codeguard.Result, error) {
	const query = `
		INSERT INTO code_claim (code_hash, claimed_at)
		VALUES ($1, NOW())
	`
	_, err := g.pool.Exec(ctx, query, codeguard.HashCode(rawCode))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return codeguard.AlreadyClaimed, nil
		}
		return codeguard.AlreadyClaimed, err
	}
	return codeguard.Granted, nil
}

// Purge deletes claims older than the retention window.
func (g *Guard) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	const query = `DELETE FROM code_claim WHERE claimed_at < $1`
	tag, err := g.pool.Exec(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
