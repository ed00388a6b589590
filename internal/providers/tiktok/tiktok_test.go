package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgate/internal/providers"
)

func newTestProvider(tokenEndpoint string) *Provider {
	return &Provider{
		clientKey:     "tt-key",
		clientSecret:  "tt-secret",
		redirectURI:   "https://app.example.com/cb",
		scopes:        []string{"user.info.basic", "video.publish"},
		authEndpoint:  defaultAuthEndpoint,
		tokenEndpoint: tokenEndpoint,
		http:          http.DefaultClient,
	}
}

func TestExchange_MapsOpenIDToResource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "tt-key", r.PostForm.Get("client_key"))
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "creator-token",
			"expires_in":    86400,
			"open_id":       "open-123",
			"refresh_token": "refresh-1",
			"scope":         "user.info.basic,video.publish",
			"token_type":    "Bearer",
		})
	}))
	defer srv.Close()

	cred, err := newTestProvider(srv.URL).Exchange(context.Background(), "tt-code", "")
	require.NoError(t, err)
	require.Equal(t, "creator-token", cred.AccessToken)
	require.Equal(t, "Bearer", cred.TokenType)
	require.Equal(t, []string{"user.info.basic", "video.publish"}, cred.Scope)
	require.Len(t, cred.Resources, 1)
	require.Equal(t, "open-123", cred.Resources[0].ID)
}

func TestExchange_RejectionVerbatim(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Authorization code is expired.",
		})
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Exchange(context.Background(), "tt-code", "")

	var ee *providers.ExchangeError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, providers.KindProviderRejected, ee.Kind)
	require.Equal(t, "invalid_grant", ee.Code)
}

func TestExchange_MissingCredentials(t *testing.T) {
	t.Parallel()

	p := newTestProvider("http://127.0.0.1:0")
	p.clientSecret = ""

	_, err := p.Exchange(context.Background(), "tt-code", "")
	var ee *providers.ExchangeError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, providers.KindMissingCredentials, ee.Kind)
}

func TestAuthorizeURL_UsesClientKey(t *testing.T) {
	t.Parallel()

	u := newTestProvider(defaultTokenEndpoint).AuthorizeURL("st-1")
	require.Contains(t, u, "client_key=tt-key")
	require.Contains(t, u, "state=st-1")
}
