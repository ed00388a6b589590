// Package cache defines the byte-oriented cache contract shared by the
// memory and redis backends. The gateway uses it for the webhook
// recently-seen set and for exchange outcome bookkeeping.
package cache

import "time"

// Cache is a minimal TTL'd key/value store.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)

	// Add stores the value only if the key is absent and reports whether it
	// was stored. Backends must make this atomic: it is what makes the
	// recently-seen set race-free.
	Add(k string, v []byte, ttl time.Duration) bool
}
