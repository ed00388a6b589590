// Package admin exposes the operator endpoints.
package admin

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/socialgate/internal/codeguard"
	dto "github.com/dropDatabas3/socialgate/internal/http/dto/admin"
	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/helpers"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// Controller serves the admin routes.
type Controller struct {
	purger    codeguard.Purger
	retention time.Duration
}

// Deps carries the controller's collaborators. Purger may be nil when the
// claim store expires entries on its own.
type Deps struct {
	Purger    codeguard.Purger
	Retention time.Duration
}

// New creates the admin Controller.
func New(d Deps) *Controller {
	return &Controller{
		purger:    d.Purger,
		retention: d.Retention,
	}
}

// PurgeClaims handles POST /admin/claims/purge: removal of claims past
// their retention. Expired claims no longer protect anything, the codes
// they hash expired at the provider long ago.
func (c *Controller) PurgeClaims(w http.ResponseWriter, r *http.Request) {
	if c.purger == nil {
		apperrors.WriteError(w, apperrors.ErrNotFound.WithDetail("claim store expires entries automatically"))
		return
	}

	var req dto.PurgeClaimsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	retention := c.retention
	if req.OlderThanHours > 0 {
		retention = time.Duration(req.OlderThanHours) * time.Hour
	}

	deleted, err := c.purger.Purge(r.Context(), retention)
	if err != nil {
		logger.From(r.Context()).Error("claims purge failed", logger.Err(err))
		apperrors.WriteError(w, apperrors.ErrClaimStoreUnavailable.WithCause(err))
		return
	}

	logger.From(r.Context()).Info("claims purged",
		logger.Component("admin"),
		logger.Count(int(deleted)),
	)
	helpers.WriteJSON(w, http.StatusOK, dto.PurgeClaimsResponse{Deleted: deleted})
}
