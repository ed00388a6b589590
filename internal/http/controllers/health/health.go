// Package health exposes the liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	"github.com/dropDatabas3/socialgate/internal/providers"
)

// Pinger checks one dependency. Readiness fails closed: a gateway that
// cannot claim codes must not receive traffic.
type Pinger func(ctx context.Context) error

// Controller serves the probes.
type Controller struct {
	registry *providers.Registry
	pingers  map[string]Pinger
	version  string
}

// Deps carries the controller's collaborators.
type Deps struct {
	Registry *providers.Registry
	Pingers  map[string]Pinger
	Version  string
}

// New creates the health Controller.
func New(d Deps) *Controller {
	return &Controller{
		registry: d.Registry,
		pingers:  d.Pingers,
		version:  d.Version,
	}
}

// Healthz handles GET /healthz.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": c.version,
	})
}

// Readyz handles GET /readyz. Each dependency gets a short deadline so a
// hung store cannot hang the probe.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string, len(c.pingers))
	ready := true
	for name, ping := range c.pingers {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := ping(ctx); err != nil {
			deps[name] = "down"
			ready = false
		} else {
			deps[name] = "up"
		}
		cancel()
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	helpers.WriteJSON(w, status, map[string]any{
		"status":    state,
		"deps":      deps,
		"providers": c.registry.Configured(),
	})
}
