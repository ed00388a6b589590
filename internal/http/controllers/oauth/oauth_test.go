package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialgate/internal/exchange"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/security/state"
)

type stubAdapter struct{ name string }

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) AuthorizeURL(st string) string {
	return "https://provider.example/auth?state=" + st
}
func (s *stubAdapter) Exchange(ctx context.Context, code, redirectURI string) (*providers.Credential, error) {
	return nil, nil
}

type stubCoordinator struct {
	result *exchange.Result
	err    error
}

func (s *stubCoordinator) Exchange(ctx context.Context, provider, rawCode, redirectURI, correlationKey string) (*exchange.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	res.CorrelationKey = correlationKey
	return &res, nil
}

func newTestRouter(t *testing.T, coord exchange.Coordinator) (http.Handler, *state.Signer) {
	t.Helper()

	reg := providers.NewRegistry()
	reg.RegisterFactory("facebook", func(cfg providers.Config) (providers.Adapter, error) {
		return &stubAdapter{name: "facebook"}, nil
	})
	if err := reg.Configure("facebook", providers.Config{ClientID: "id"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	signer, err := state.NewSigner("test-key", time.Minute)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	c := New(Deps{Coordinator: coord, Registry: reg, Signer: signer})
	r := chi.NewRouter()
	r.Route("/oauth/{provider}", func(r chi.Router) {
		r.Get("/authorize", c.Authorize)
		r.Post("/token", c.Token)
	})
	return r, signer
}

func postToken(t *testing.T, h http.Handler, provider string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/"+provider+"/token", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errBody {
	t.Helper()
	var e errBody
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return e
}

func TestToken_Success(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour)
	coord := &stubCoordinator{result: &exchange.Result{
		Provider: "facebook",
		Credential: &providers.Credential{
			AccessToken: "long-token",
			TokenType:   "bearer",
			ExpiresAt:   &exp,
			Resources: []providers.ResourceHandle{
				{ID: "p1", Name: "Main Page", AccessToken: "page-token"},
			},
		},
	}}
	h, _ := newTestRouter(t, coord)

	rec := postToken(t, h, "facebook", map[string]string{
		"code":           "auth-code",
		"redirectUri":    "https://app.example.com/cb",
		"correlationKey": "user-7",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["accessToken"] != "long-token" || resp["tokenType"] != "bearer" {
		t.Fatalf("body = %v", resp)
	}
	if resp["correlationKey"] != "user-7" {
		t.Fatalf("correlationKey = %v", resp["correlationKey"])
	}
	if secs, ok := resp["expiresIn"].(float64); !ok || secs < 3500 || secs > 3600 {
		t.Fatalf("expiresIn = %v", resp["expiresIn"])
	}
	resources, ok := resp["resources"].([]any)
	if !ok || len(resources) != 1 {
		t.Fatalf("resources = %v", resp["resources"])
	}
}

func TestToken_DuplicateCode(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, &stubCoordinator{err: exchange.ErrDuplicateCode})
	rec := postToken(t, h, "facebook", map[string]string{"code": "used-code"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if e := decodeErr(t, rec); e.Error != "DUPLICATE_CODE" {
		t.Fatalf("error tag = %q", e.Error)
	}
}

func TestToken_UnknownProvider(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, &stubCoordinator{})
	rec := postToken(t, h, "myspace", map[string]string{"code": "auth-code"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if e := decodeErr(t, rec); e.Error != "PROVIDER_NOT_FOUND" {
		t.Fatalf("error tag = %q", e.Error)
	}
}

func TestToken_MissingCode(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, &stubCoordinator{})
	rec := postToken(t, h, "facebook", map[string]string{"redirectUri": "https://app.example.com/cb"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if e := decodeErr(t, rec); e.Error != "MISSING_FIELDS" {
		t.Fatalf("error tag = %q", e.Error)
	}
}

func TestToken_ProviderRejected(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, &stubCoordinator{err: &providers.ExchangeError{
		Provider: "facebook",
		Kind:     providers.KindProviderRejected,
		Code:     "190",
		Message:  "Invalid OAuth access token.",
	}})
	rec := postToken(t, h, "facebook", map[string]string{"code": "auth-code"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	e := decodeErr(t, rec)
	if e.Error != "PROVIDER_REJECTED" {
		t.Fatalf("error tag = %q", e.Error)
	}
	if e.Detail != "190: Invalid OAuth access token." {
		t.Fatalf("detail = %q", e.Detail)
	}
}

func TestToken_StateCarriesCorrelationKey(t *testing.T) {
	t.Parallel()

	coord := &stubCoordinator{result: &exchange.Result{
		Provider:   "facebook",
		Credential: &providers.Credential{AccessToken: "tok", TokenType: "bearer"},
	}}
	h, signer := newTestRouter(t, coord)

	signed, err := signer.Sign("facebook", "from-state")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := postToken(t, h, "facebook", map[string]string{"code": "auth-code", "state": signed})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["correlationKey"] != "from-state" {
		t.Fatalf("correlationKey = %v, want the one minted into state", resp["correlationKey"])
	}
}

func TestToken_StateForWrongProvider(t *testing.T) {
	t.Parallel()

	h, signer := newTestRouter(t, &stubCoordinator{})
	signed, _ := signer.Sign("linkedin", "")

	rec := postToken(t, h, "facebook", map[string]string{"code": "auth-code", "state": signed})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if e := decodeErr(t, rec); e.Error != "INVALID_STATE" {
		t.Fatalf("error tag = %q", e.Error)
	}
}

func TestAuthorize_ReturnsSignedState(t *testing.T) {
	t.Parallel()

	h, signer := newTestRouter(t, &stubCoordinator{})
	req := httptest.NewRequest(http.MethodGet, "/oauth/facebook/authorize?correlation_key=user-9", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := signer.Verify(resp["state"], "facebook")
	if err != nil {
		t.Fatalf("returned state does not verify: %v", err)
	}
	if claims.CorrelationKey != "user-9" {
		t.Fatalf("claims = %+v", claims)
	}
	if resp["authorizeUrl"] == "" {
		t.Fatalf("authorizeUrl missing: %v", resp)
	}
}
