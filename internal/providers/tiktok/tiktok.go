// Package tiktok implements the TikTok OAuth2 provider. Single hop against
// the v2 token endpoint; TikTok names the client id "client_key" and returns
// the creator's open_id, which we surface as a resource handle.
package tiktok

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/providers"
)

const ProviderName = "tiktok"

const (
	defaultAuthEndpoint  = "https://www.tiktok.com/v2/auth/authorize/"
	defaultTokenEndpoint = "https://open.tiktokapis.com/v2/oauth/token/"
)

// Provider implements the TikTok exchange.
type Provider struct {
	clientKey    string
	clientSecret string
	redirectURI  string
	scopes       []string

	authEndpoint  string
	tokenEndpoint string
	http          *http.Client
}

// Factory creates a new TikTok provider.
func Factory(cfg providers.Config) (providers.Adapter, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"user.info.basic", "video.publish"}
	}
	return &Provider{
		clientKey:     cfg.ClientID,
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

// AuthorizeURL builds the TikTok authorization URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authEndpoint)
	q := u.Query()
	q.Set("client_key", p.clientKey)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("scope", strings.Join(p.scopes, ","))
	q.Set("state", state)
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	OpenID       string `json:"open_id"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange trades the code for a creator access token.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (*providers.Credential, error) {
	if p.clientKey == "" || p.clientSecret == "" {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMissingCredentials,
			Message:  "client key/secret not configured",
		}
	}
	if redirectURI == "" {
		redirectURI = p.redirectURI
	}

	form := url.Values{}
	form.Set("client_key", p.clientKey)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &providers.ExchangeError{Provider: ProviderName, Kind: providers.KindNetworkFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
		scope = strings.Split(tr.Scope, ",")
	}

	cred := &providers.Credential{
		AccessToken:  tr.AccessToken,
		TokenType:    tokenTypeOr(tr.TokenType, "bearer"),
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    providers.ExpiryFromSeconds(tr.ExpiresIn),
		Scope:        scope,
	}
	if tr.OpenID != "" {
		cred.Resources = []providers.ResourceHandle{{ID: tr.OpenID}}
	}
	return cred, nil
}

func tokenTypeOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
