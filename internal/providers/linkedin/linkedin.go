// Package linkedin implements the LinkedIn OAuth2 provider. Single hop:
// a form-encoded POST to the token endpoint.
package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/providers"
)

const ProviderName = "linkedin"

const (
	defaultAuthEndpoint  = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenEndpoint = "https://www.linkedin.com/oauth/v2/accessToken"
)

// Provider implements the LinkedIn exchange.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string

	authEndpoint  string
	tokenEndpoint string
	http          *http.Client
}

// Factory creates a new LinkedIn provider.
func Factory(cfg providers.Config) (providers.Adapter, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"w_member_social"}
	}
	return &Provider{
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		redirectURI:   cfg.RedirectURI,
		scopes:        scopes,
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: defaultTokenEndpoint,
		http:          cfg.HTTPOrDefault(),
	}, nil
}

// Name returns the provider tag.
func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the LinkedIn authorization URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("scope", strings.Join(p.scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange trades the code for a member access token.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (*providers.Credential, error) {
	if p.clientID == "" || p.clientSecret == "" {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMissingCredentials,
			Message:  "client id/secret not configured",
		}
	}
	if redirectURI == "" {
		redirectURI = p.redirectURI
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Kind: providers.KindNetworkFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Kind: providers.KindNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Kind: providers.KindMalformedResponse, Err: err}
	}

	if tr.Error != "" {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     tr.Error,
			Message:  tr.ErrorDesc,
		}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     http.StatusText(resp.StatusCode),
			Message:  "token endpoint returned non-2xx status",
		}
	}
	if tr.AccessToken == "" {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMalformedResponse,
			Message:  "no access_token in response",
		}
	}

	scope := p.scopes
	if tr.Scope != "" {
		scope = strings.Fields(strings.ReplaceAll(tr.Scope, ",", " "))
	}

	return &providers.Credential{
		AccessToken:  tr.AccessToken,
		TokenType:    "bearer",
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    providers.ExpiryFromSeconds(tr.ExpiresIn),
		Scope:        scope,
	}, nil
}
