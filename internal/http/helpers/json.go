package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
)

// MaxBodyBytes caps request bodies on JSON endpoints.
const MaxBodyBytes = 1 << 20

// ReadJSON decodes the request body. Unknown fields are tolerated; the
// body is capped at MaxBodyBytes. Returns false if an error response was
// already written.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("Content-Type must be application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apperrors.WriteError(w, apperrors.ErrBodyTooLarge)
			return false
		}
		apperrors.WriteError(w, apperrors.ErrInvalidJSON)
		return false
	}
	return true
}

// ReadRawBody reads the raw request body up to MaxBodyBytes. Webhook
// signature verification needs the exact bytes as received.
func ReadRawBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		apperrors.WriteError(w, apperrors.ErrBodyTooLarge)
		return nil, false
	}
	return body, true
}

// WriteJSON writes a standard JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
