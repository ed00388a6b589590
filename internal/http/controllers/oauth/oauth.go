// Package oauth exposes the token exchange endpoints.
package oauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialgate/internal/exchange"
	dto "github.com/dropDatabas3/socialgate/internal/http/dto/oauth"
	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/security/state"
)

// Controller serves the authorize and token endpoints.
type Controller struct {
	coordinator exchange.Coordinator
	registry    *providers.Registry
	signer      *state.Signer
}

// Deps carries the controller's collaborators.
type Deps struct {
	Coordinator exchange.Coordinator
	Registry    *providers.Registry
	Signer      *state.Signer
}

// New creates the oauth Controller.
func New(d Deps) *Controller {
	return &Controller{
		coordinator: d.Coordinator,
		registry:    d.Registry,
		signer:      d.Signer,
	}
}

// Authorize handles GET /oauth/{provider}/authorize. It mints a signed
// state token and returns the provider's authorization URL; the frontend
// performs the redirect.
func (c *Controller) Authorize(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	adapter, ok := c.registry.Get(providerName)
	if !ok {
		apperrors.WriteError(w, apperrors.ErrProviderNotFound)
		return
	}

	correlationKey := r.URL.Query().Get("correlation_key")
	signed, err := c.signer.Sign(providerName, correlationKey)
	if err != nil {
		logger.From(r.Context()).Error("state signing failed",
			logger.Provider(providerName),
			logger.Err(err),
		)
		apperrors.WriteError(w, apperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.AuthorizeResponse{
		Provider:     providerName,
		AuthorizeURL: adapter.AuthorizeURL(signed),
		State:        signed,
	})
}

// Token handles POST /oauth/{provider}/token: the single-use exchange of
// an authorization code for a provider credential.
func (c *Controller) Token(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	if _, ok := c.registry.Get(providerName); !ok {
		apperrors.WriteError(w, apperrors.ErrProviderNotFound)
		return
	}

	var req dto.TokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields.WithDetail("code is required"))
		return
	}

	correlationKey := req.CorrelationKey
	if req.State != "" {
		claims, err := c.signer.Verify(req.State, providerName)
		if err != nil {
			apperrors.WriteError(w, apperrors.ErrInvalidState)
			return
		}
		if correlationKey == "" {
			correlationKey = claims.CorrelationKey
		}
	}

	result, err := c.coordinator.Exchange(r.Context(), providerName, req.Code, req.RedirectURI, correlationKey)
	if err != nil {
		apperrors.WriteError(w, mapExchangeError(err))
		return
	}

	cred := result.Credential
	resp := dto.TokenResponse{
		Provider:       result.Provider,
		AccessToken:    cred.AccessToken,
		TokenType:      cred.TokenType,
		RefreshToken:   cred.RefreshToken,
		Scope:          cred.Scope,
		CorrelationKey: result.CorrelationKey,
	}
	if cred.ExpiresAt != nil {
		if secs := int64(time.Until(*cred.ExpiresAt).Seconds()); secs > 0 {
			resp.ExpiresIn = secs
		}
	}
	for _, res := range cred.Resources {
		resp.Resources = append(resp.Resources, dto.Resource{
			ID:          res.ID,
			Name:        res.Name,
			AccessToken: res.AccessToken,
		})
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// mapExchangeError translates coordinator errors into the HTTP error
// catalog. Provider error codes are surfaced as detail so clients can
// tell a revoked app from an expired code without parsing logs.
func mapExchangeError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, exchange.ErrDuplicateCode):
		return apperrors.ErrDuplicateCode
	case errors.Is(err, exchange.ErrUnknownProvider):
		return apperrors.ErrProviderNotFound
	}

	var ee *providers.ExchangeError
	if errors.As(err, &ee) {
		switch ee.Kind {
		case providers.KindMissingCredentials:
			return apperrors.ErrProviderNotConfigured.WithCause(err)
		case providers.KindProviderRejected:
			detail := ee.Code
			if ee.Message != "" {
				detail = ee.Code + ": " + ee.Message
			}
			return apperrors.ErrProviderRejected.WithDetail(detail).WithCause(err)
		case providers.KindNetworkFailure:
			return apperrors.ErrProviderUnreachable.WithCause(err)
		case providers.KindMalformedResponse:
			return apperrors.ErrProviderMalformedResponse.WithCause(err)
		}
	}

	// Claim store failures and anything else unexpected: the exchange
	// was refused, the code may still be fresh.
	return apperrors.ErrClaimStoreUnavailable.WithCause(err)
}
