// Package apikey verifies the admin API key against a bcrypt hash kept in
// configuration, so the plaintext key never lives in config files or source.
package apikey

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verify reports whether the presented key matches the configured bcrypt
// hash. An empty hash disables the admin surface: nothing matches.
func Verify(hash, presented string) bool {
	hash = strings.TrimSpace(hash)
	presented = strings.TrimSpace(presented)
	if hash == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}

// Hash generates a bcrypt hash for the given key. Used by the CLI to
// produce the value stored in config.
func Hash(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
