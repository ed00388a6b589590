// Package oauth holds the wire shapes of the token exchange endpoints.
package oauth

// TokenRequest is the body of POST /oauth/{provider}/token.
type TokenRequest struct {
	Code           string `json:"code"`
	RedirectURI    string `json:"redirectUri,omitempty"`
	CorrelationKey string `json:"correlationKey,omitempty"`
	State          string `json:"state,omitempty"`
}

// Resource is one provider-side posting surface (a page, an open id).
type Resource struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// TokenResponse is the success body of POST /oauth/{provider}/token.
// ExpiresIn is seconds from now; zero means the provider reported no
// expiry.
type TokenResponse struct {
	Provider       string     `json:"provider"`
	AccessToken    string     `json:"accessToken"`
	TokenType      string     `json:"tokenType"`
	ExpiresIn      int64      `json:"expiresIn,omitempty"`
	RefreshToken   string     `json:"refreshToken,omitempty"`
	Scope          []string   `json:"scope,omitempty"`
	Resources      []Resource `json:"resources,omitempty"`
	CorrelationKey string     `json:"correlationKey,omitempty"`
}

// AuthorizeResponse is the body of GET /oauth/{provider}/authorize.
type AuthorizeResponse struct {
	Provider     string `json:"provider"`
	AuthorizeURL string `json:"authorizeUrl"`
	State        string `json:"state"`
}
