// Package admin holds the wire shapes of the admin endpoints.
package admin

// PurgeClaimsRequest is the body of POST /admin/claims/purge.
type PurgeClaimsRequest struct {
	// OlderThanHours keeps claims younger than this. Zero means the
	// configured retention.
	OlderThanHours int `json:"older_than_hours,omitempty"`
}

// PurgeClaimsResponse reports how many claims were removed.
type PurgeClaimsResponse struct {
	Deleted int64 `json:"deleted"`
}
