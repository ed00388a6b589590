package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	memcache "github.com/dropDatabas3/socialgate/internal/cache/memory"
	wh "github.com/dropDatabas3/socialgate/internal/webhook"
)

const testSecret = "whsec_controller"

type fixture struct {
	handler     http.Handler
	verifier    *wh.Verifier
	invocations int32
	handlerErr  error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{verifier: wh.NewVerifier(testSecret, 5*time.Minute)}
	d := wh.NewDispatcher(wh.DispatcherDeps{
		Cache:       memcache.New(time.Minute),
		DedupWindow: time.Minute,
	})
	d.Handle("post.published", func(ctx context.Context, provider string, ev wh.Event) error {
		atomic.AddInt32(&f.invocations, 1)
		return f.handlerErr
	})

	c := New(Deps{
		Verifiers:  map[string]*wh.Verifier{"facebook": f.verifier},
		Dispatcher: d,
	})
	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", c.Receive)
	f.handler = r
	return f
}

func (f *fixture) deliver(t *testing.T, provider string, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+provider, bytes.NewReader(body))
	if sign {
		req.Header.Set(SignatureHeader, f.verifier.Sign(time.Now(), body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func ackBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestReceive_VerifiedEventAcked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := []byte(`{"eventId":"ev-1","type":"post.published","payload":{"postId":"99"}}`)

	rec := f.deliver(t, "facebook", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if m := ackBody(t, rec); m["received"] != true {
		t.Fatalf("ack = %v", m)
	}
	if atomic.LoadInt32(&f.invocations) != 1 {
		t.Fatalf("handler invoked %d times", f.invocations)
	}
}

func TestReceive_BadSignatureRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := []byte(`{"eventId":"ev-2","type":"post.published"}`)

	rec := f.deliver(t, "facebook", body, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var e struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &e)
	if e.Error != "INVALID_SIGNATURE" {
		t.Fatalf("error tag = %q", e.Error)
	}
	if atomic.LoadInt32(&f.invocations) != 0 {
		t.Fatalf("handler ran on an unverified event")
	}
}

func TestReceive_TamperedBodyRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := []byte(`{"eventId":"ev-3","type":"post.published"}`)
	header := f.verifier.Sign(time.Now(), body)

	tampered := bytes.Replace(body, []byte("ev-3"), []byte("ev-4"), 1)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/facebook", bytes.NewReader(tampered))
	req.Header.Set(SignatureHeader, header)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReceive_DuplicateStillAcked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := []byte(`{"eventId":"ev-5","type":"post.published"}`)

	f.deliver(t, "facebook", body, true)
	rec := f.deliver(t, "facebook", body, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rec.Code)
	}
	if m := ackBody(t, rec); m["received"] != true {
		t.Fatalf("redelivery ack = %v", m)
	}
	if atomic.LoadInt32(&f.invocations) != 1 {
		t.Fatalf("handler invoked %d times, want 1", f.invocations)
	}
}

func TestReceive_HandlerFailureStillAcked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.handlerErr = errors.New("downstream write failed")
	body := []byte(`{"eventId":"ev-6","type":"post.published"}`)

	rec := f.deliver(t, "facebook", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: handler outcome must not change the ack", rec.Code)
	}
	if m := ackBody(t, rec); m["received"] != true {
		t.Fatalf("ack = %v", m)
	}
}

func TestReceive_HandlerPanicStillAcked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := wh.NewDispatcher(wh.DispatcherDeps{
		Cache:       memcache.New(time.Minute),
		DedupWindow: time.Minute,
	})
	var invocations int32
	d.Handle("post.published", func(ctx context.Context, provider string, ev wh.Event) error {
		atomic.AddInt32(&invocations, 1)
		panic("nil deref in handler")
	})
	c := New(Deps{
		Verifiers:  map[string]*wh.Verifier{"facebook": f.verifier},
		Dispatcher: d,
	})
	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", c.Receive)
	f.handler = r

	body := []byte(`{"eventId":"ev-8","type":"post.published"}`)

	// If the panic escaped, the transport would answer 500, the provider
	// would redeliver, and dedup would drop the retry: the event would be
	// lost. The ack must hold on the first delivery.
	first := f.deliver(t, "facebook", body, true)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d, want 200", first.Code)
	}
	if m := ackBody(t, first); m["received"] != true {
		t.Fatalf("first ack = %v", m)
	}

	second := f.deliver(t, "facebook", body, true)
	if second.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", second.Code)
	}
	if got := atomic.LoadInt32(&invocations); got != 1 {
		t.Fatalf("handler invoked %d times, want 1", got)
	}
}

func TestReceive_UnknownProvider(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.deliver(t, "myspace", []byte(`{}`), false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReceive_MissingEventFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := []byte(`{"payload":{}}`)

	rec := f.deliver(t, "facebook", body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var e struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &e)
	if e.Error != "MISSING_FIELDS" {
		t.Fatalf("error tag = %q", e.Error)
	}
}
