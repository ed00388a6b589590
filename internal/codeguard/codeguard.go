// Package codeguard provides single-use admission control for OAuth
// authorization codes. A code may be claimed at most once across all gateway
// instances; the claim is an atomic unique-key insert in a shared store, not
// a read-then-write check.
//
// A claim is never released. A code is burned at the provider the moment it
// is first presented, so re-attempting an exchange after a failed one is
// futile; failing fast is deliberate.
package codeguard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Result of a claim attempt.
type Result int

const (
	// Granted: this caller, and only this caller, may exchange the code.
	Granted Result = iota
	// AlreadyClaimed: some caller (possibly another instance) already holds
	// the claim. Never retry the same code.
	AlreadyClaimed
)

func (r Result) String() string {
	if r == Granted {
		return "granted"
	}
	return "already_claimed"
}

// Guard is the admission control contract. Implementations fail closed: an
// ambiguous store state must surface as an error, never as Granted.
type Guard interface {
	Claim(ctx context.Context, rawCode string) (Result, error)
}

// Purger is implemented by stores that support deleting claims older than a
// retention window. Codes expire at the provider in minutes, so old claims
// are only garbage.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// HashCode derives the claim key from the raw code. Full SHA-256, hex
// encoded; the raw code is never persisted.
func HashCode(rawCode string) string {
	sum := sha256.Sum256([]byte(rawCode))
	return hex.EncodeToString(sum[:])
}
