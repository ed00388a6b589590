// Package facebook implements the Facebook OAuth2 provider.
//
// The exchange is a chain: (1) code -> short-lived user token, (2)
// short-lived -> long-lived token via grant_type=fb_exchange_token, (3)
// enumeration of managed pages, each with its own page access token. The
// Graph API expects these as GET requests with query-string parameters.
// Any hop failing aborts the chain; a credential holding only the
// short-lived token is never returned.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/providers"
)

const ProviderName = "facebook"

const (
	defaultAuthBase  = "https://www.facebook.com/v19.0/dialog/oauth"
	defaultGraphBase = "https://graph.facebook.com/v19.0"
)

// Provider implements the Facebook multi-hop exchange.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string

	authBase  string
	graphBase string
	http      *http.Client
}

// Factory creates a new Facebook provider.
func Factory(cfg providers.Config) (providers.Adapter, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"pages_show_list", "pages_manage_posts"}
	}
	return &Provider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		scopes:       scopes,
		authBase:     defaultAuthBase,
		graphBase:    defaultGraphBase,
		http:         cfg.HTTPOrDefault(),
	}, nil
}

// Name returns the provider tag.
func (p *Provider) Name() string { return ProviderName }

// AuthorizeURL builds the Facebook authorization URL.
func (p *Provider) AuthorizeURL(state string) string {
	u, _ := url.Parse(p.authBase)
	q := u.Query()
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("scope", strings.Join(p.scopes, ","))
	q.Set("state", state)
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

// tokenResponse covers both the token payload and the Graph error envelope.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type pagesResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Exchange runs the full chain. Partial results are discarded: a credential
// without the long-lived lifetime is worse than no credential.
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

	// Hop 1: code -> short-lived token.
	shortLived, err := p.tokenCall(ctx, url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"redirect_uri":  {redirectURI},
		"code":          {code},
	})
	if err != nil {
		return nil, err
	}

	// Hop 2: short-lived -> long-lived token.
	longLived, err := p.tokenCall(ctx, url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {p.clientID},
		"client_secret":     {p.clientSecret},
		"fb_exchange_token": {shortLived.AccessToken},
	})
	if err != nil {
		return nil, err
	}

	cred := &providers.Credential{
		AccessToken: longLived.AccessToken,
		TokenType:   tokenTypeOr(longLived.TokenType, "bearer"),
		ExpiresAt:   providers.ExpiryFromSeconds(longLived.ExpiresIn),
		Scope:       append([]string(nil), p.scopes...),
	}

	// Hop 3: enumerate managed pages with the long-lived token.
	pages, err := p.listPages(ctx, longLived.AccessToken)
	if err != nil {
		return nil, err
	}
	cred.Resources = pages

	return cred, nil
}

// tokenCall performs one query-string token hop against the Graph API.
func (p *Provider) tokenCall(ctx context.Context, params url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBase+"/oauth/access_token?"+params.Encode(), nil)
	if err != nil {
		return nil, p.netErr(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, p.netErr(err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMalformedResponse,
			Err:      fmt.Errorf("decode token response: %w", err),
		}
	}

	if tr.Error != nil {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     fmt.Sprintf("%d", tr.Error.Code),
			Message:  tr.Error.Message,
		}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     fmt.Sprintf("http_%d", resp.StatusCode),
			Message:  http.StatusText(resp.StatusCode),
		}
	}
	if tr.AccessToken == "" {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMalformedResponse,
			Message:  "no access_token in response",
		}
	}
	return &tr, nil
}

func (p *Provider) listPages(ctx context.Context, accessToken string) ([]providers.ResourceHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBase+"/me/accounts?access_token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return nil, p.netErr(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, p.netErr(err)
	}
	defer resp.Body.Close()

	var pr pagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindMalformedResponse,
			Err:      fmt.Errorf("decode pages response: %w", err),
		}
	}
	if pr.Error != nil {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     fmt.Sprintf("%d", pr.Error.Code),
			Message:  pr.Error.Message,
		}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &providers.ExchangeError{
			Provider: ProviderName,
			Kind:     providers.KindProviderRejected,
			Code:     fmt.Sprintf("http_%d", resp.StatusCode),
			Message:  http.StatusText(resp.StatusCode),
		}
	}

	handles := make([]providers.ResourceHandle, 0, len(pr.Data))
	for _, page := range pr.Data {
		handles = append(handles, providers.ResourceHandle{
			ID:          page.ID,
			Name:        page.Name,
			AccessToken: page.AccessToken,
		})
	}
	return handles, nil
}

func (p *Provider) netErr(err error) *providers.ExchangeError {
	return &providers.ExchangeError{
		Provider: ProviderName,
		Kind:     providers.KindNetworkFailure,
		Err:      err,
	}
}

func tokenTypeOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
