// Package webhook exposes the provider event intake endpoint.
package webhook

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/socialgate/internal/http/dto/webhook"
	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/webhook"
)

// SignatureHeader carries the provider's HMAC signature.
const SignatureHeader = "X-Webhook-Signature"

// Controller verifies and dispatches incoming events.
type Controller struct {
	verifiers  map[string]*webhook.Verifier
	dispatcher *webhook.Dispatcher
}

// Deps carries the controller's collaborators. Verifiers is keyed by
// provider tag; a provider without a verifier has no webhook intake.
type Deps struct {
	Verifiers  map[string]*webhook.Verifier
	Dispatcher *webhook.Dispatcher
}

// New creates the webhook Controller.
func New(d Deps) *Controller {
	return &Controller{
		verifiers:  d.Verifiers,
		dispatcher: d.Dispatcher,
	}
}

// Receive handles POST /webhooks/{provider}. Verification failures are
// rejected; everything verified is acknowledged, whatever the handler
// outcome, because providers retry on non-2xx and a retry would be
// dropped as a duplicate anyway.
func (c *Controller) Receive(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	verifier, ok := c.verifiers[providerName]
	if !ok {
		apperrors.WriteError(w, apperrors.ErrProviderNotFound)
		return
	}

	body, ok := helpers.ReadRawBody(w, r)
	if !ok {
		return
	}

	if err := verifier.Verify(r.Header.Get(SignatureHeader), body); err != nil {
		reason := webhook.FailureReason(err)
		metrics.WebhookVerifyFailures.WithLabelValues(providerName, reason).Inc()
		logger.From(r.Context()).Warn("webhook signature rejected",
			logger.Provider(providerName),
			logger.String("reason", reason),
		)
		apperrors.WriteError(w, apperrors.ErrInvalidWebhookSignature)
		return
	}

	var env dto.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		apperrors.WriteError(w, apperrors.ErrInvalidJSON)
		return
	}
	if env.EventID == "" || env.Type == "" {
		apperrors.WriteError(w, apperrors.ErrMissingFields.WithDetail("eventId and type are required"))
		return
	}

	c.dispatcher.Dispatch(r.Context(), providerName, webhook.Event{
		ID:         env.EventID,
		Type:       env.Type,
		Payload:    env.Payload,
		ReceivedAt: time.Now(),
	})

	helpers.WriteJSON(w, http.StatusOK, dto.AckResponse{Received: true})
}
