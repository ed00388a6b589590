package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse controls exactly which fields reach the client. The
// stable tag travels as "error"; Message is for humans only and may
// change between releases.
type errorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError writes the HTTP response for err. Generic errors become a
// generic internal error; the original cause never reaches the client.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
