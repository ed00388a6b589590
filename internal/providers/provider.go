// Package providers defines the provider-agnostic token exchange contract.
//
// Each supported provider (Facebook, LinkedIn, TikTok, Twitter) lives in its
// own sub-package and implements Adapter for its own wire protocol: some are
// a single token-endpoint POST, Facebook is a multi-hop chain (short-lived
// token, long-lived token, page enumeration). The Registry maps a provider
// tag to its configured adapter instance.
//
// Adapters never retry: an authorization code is single-use at the provider,
// so retrying a failed exchange with the same code cannot succeed.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Adapter is the contract every provider implements.
type Adapter interface {
	// Name returns the provider tag ("facebook", "linkedin", ...).
	Name() string

	// AuthorizeURL builds the provider authorization URL carrying the given
	// opaque state value.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for a credential. Errors are
	// *ExchangeError carrying the taxonomy kind.
	Exchange(ctx context.Context, code, redirectURI string) (*Credential, error)
}

// Config is the per-provider configuration captured once at construction.
// Secrets come from the configuration collaborator only, never from source.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// HTTPClient overrides the default timeout-bounded client. Tests use it
	// to point adapters at local servers.
	HTTPClient *http.Client
}

// HTTPOrDefault returns the configured client or a bounded default. Provider
// calls must never hang: the upstream caller runs under its own deadline.
func (c Config) HTTPOrDefault() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Factory creates a configured adapter instance.
type Factory func(cfg Config) (Adapter, error)

// Credential is the uniform result of a successful exchange. The gateway
// does not persist it; ownership passes to the caller.
type Credential struct {
	AccessToken  string
	TokenType    string
	RefreshToken string

	// ExpiresAt is nil for non-expiring long-lived tokens.
	ExpiresAt *time.Time

	Scope []string

	// Resources are provider resources (pages, accounts) linked to the
	// credential, each possibly carrying its own access token.
	Resources []ResourceHandle
}

// ResourceHandle identifies a provider resource reachable with the
// credential.
type ResourceHandle struct {
	ID          string
	Name        string
	AccessToken string
}

// ErrorKind is the exchange error taxonomy.
type ErrorKind string

const (
	// KindMissingCredentials: client id/secret absent in adapter config.
	// Detected before any network call.
	KindMissingCredentials ErrorKind = "missing_credentials"
	// KindProviderRejected: the provider answered with an error (non-2xx or
	// an error field in the body). Code and Message are verbatim.
	KindProviderRejected ErrorKind = "provider_rejected"
	// KindNetworkFailure: transport-level failure or timeout.
	KindNetworkFailure ErrorKind = "network_failure"
	// KindMalformedResponse: 2xx but the expected fields are missing.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ExchangeError carries the taxonomy kind plus the provider's own error
// code/message verbatim when available.
type ExchangeError struct {
	Provider string
	Kind     ErrorKind
	Code     string
	Message  string
	Err      error
}

func (e *ExchangeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s exchange: %s: %s", e.Provider, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s exchange: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s exchange: %s", e.Provider, e.Kind)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// ExpiryFromSeconds converts an expires_in value to an absolute time.
// Zero or negative means the provider declared no expiry.
func ExpiryFromSeconds(secs int64) *time.Time {
	if secs <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(secs) * time.Second)
	return &t
}
