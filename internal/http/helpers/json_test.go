package helpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func errTag(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return e.Error
}

func TestReadJSON_OK(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"abc","extra":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	var v struct {
		Code string `json:"code"`
	}
	if !ReadJSON(rec, req, &v) || v.Code != "abc" {
		t.Fatalf("ok=%v v=%+v body=%s", false, v, rec.Body.String())
	}
}

func TestReadJSON_WrongContentType(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	var v struct{}
	if ReadJSON(rec, req, &v) {
		t.Fatalf("accepted a non-json content type")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReadJSON_InvalidBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	var v struct{}
	if ReadJSON(rec, req, &v) {
		t.Fatalf("accepted broken json")
	}
	if rec.Code != http.StatusBadRequest || errTag(t, rec) != "INVALID_JSON" {
		t.Fatalf("status=%d tag=%s", rec.Code, errTag(t, rec))
	}
}

func TestReadJSON_BodyOverCap(t *testing.T) {
	t.Parallel()

	// A valid JSON document larger than the cap must report the size, not
	// a parse failure.
	huge := `{"pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	var v struct{}
	if ReadJSON(rec, req, &v) {
		t.Fatalf("accepted an oversized body")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if tag := errTag(t, rec); tag != "BODY_TOO_LARGE" {
		t.Fatalf("tag = %q, want BODY_TOO_LARGE", tag)
	}
}

func TestReadRawBody_ExactBytes(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"b":2,"a":1}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	body, ok := ReadRawBody(rec, req)
	if !ok || !bytes.Equal(body, payload) {
		t.Fatalf("ok=%v body=%q", ok, body)
	}
}
