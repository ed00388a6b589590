// Package router aggregates all routes onto one chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/admin"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/oauth"
	webhookctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/webhook"
	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	mw "github.com/dropDatabas3/socialgate/internal/http/middlewares"
)

// Deps contains every dependency the router wires.
type Deps struct {
	OAuth   *oauthctrl.Controller
	Webhook *webhookctrl.Controller
	Admin   *adminctrl.Controller
	Health  *healthctrl.Controller

	// AdminKeyHash guards the /admin subtree. Empty closes it.
	AdminKeyHash string

	// PromRegistry serves /metrics; nil falls back to the default
	// gatherer.
	PromRegistry *prometheus.Registry
}

// New builds the full route tree.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.WriteError(w, apperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.WriteError(w, apperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)

	if d.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.PromRegistry, promhttp.HandlerOpts{}))
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/oauth/{provider}", func(r chi.Router) {
		r.Get("/authorize", d.OAuth.Authorize)
		r.Post("/token", d.OAuth.Token)
	})

	r.Post("/webhooks/{provider}", d.Webhook.Receive)

	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.WithAdminKey(d.AdminKeyHash))
		r.Post("/claims/purge", d.Admin.PurgeClaims)
	})

	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithLogging(),
	)
}
