// Package state signs and verifies the OAuth state parameter as a short
// lived HS256 token, binding each authorization redirect to a provider and
// a caller correlation key so the callback can be validated statelessly.
package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "socialgate"

// DefaultTTL bounds how long a state token stays valid.
const DefaultTTL = 10 * time.Minute

// ErrInvalidState covers every way a presented state token can fail:
// bad signature, expired, wrong issuer, wrong provider.
var ErrInvalidState = errors.New("invalid state token")

// Claims is the signed payload of a state token.
type Claims struct {
	Provider       string `json:"prv"`
	CorrelationKey string `json:"ck,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints and verifies state tokens with a shared HS256 key.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSigner creates a Signer. A zero ttl means DefaultTTL.
func NewSigner(key string, ttl time.Duration) (*Signer, error) {
	if key == "" {
		return nil, errors.New("state signing key is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// Sign mints a state token for provider bound to correlationKey.
func (s *Signer) Sign(provider, correlationKey string) (string, error) {
	now := s.now()
	claims := Claims{
		Provider:       provider,
		CorrelationKey: correlationKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify parses raw and checks it was minted for provider.
func (s *Signer) Verify(raw, provider string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Provider != provider {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}
	return &claims, nil
}
