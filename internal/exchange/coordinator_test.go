package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	memcache "github.com/dropDatabas3/socialgate/internal/cache/memory"
	"github.com/dropDatabas3/socialgate/internal/codeguard"
	memguard "github.com/dropDatabas3/socialgate/internal/codeguard/memory"
	"github.com/dropDatabas3/socialgate/internal/providers"
)

type fakeAdapter struct {
	name      string
	exchanges int32
	err       error
	delay     time.Duration
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) AuthorizeURL(s string) string {
	return "https://provider.example/auth?state=" + s
}

func (f *fakeAdapter) Exchange(ctx context.Context, code, redirectURI string) (*providers.Credential, error) {
	atomic.AddInt32(&f.exchanges, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &providers.Credential{AccessToken: "tok-" + code, TokenType: "bearer"}, nil
}

type failingGuard struct{ err error }

func (g *failingGuard) Claim(ctx context.Context, rawCode string) (codeguard.Result, error) {
	return codeguard.AlreadyClaimed, g.err
}

func newTestCoordinator(guard codeguard.Guard, adapter *fakeAdapter) Coordinator {
	reg := providers.NewRegistry()
	reg.RegisterFactory(adapter.name, func(cfg providers.Config) (providers.Adapter, error) {
		return adapter, nil
	})
	if err := reg.Configure(adapter.name, providers.Config{ClientID: "id", ClientSecret: "secret"}); err != nil {
		panic(err)
	}
	return New(Deps{
		Guard:    guard,
		Registry: reg,
		Cache:    memcache.New(time.Minute),
	})
}

func TestExchange_Success(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "linkedin"}
	c := newTestCoordinator(memguard.New(), adapter)

	res, err := c.Exchange(context.Background(), "linkedin", "code-1", "", "user-77")
	if err != nil {
		t.Fatalf("exchange err: %v", err)
	}
	if res.Credential.AccessToken != "tok-code-1" {
		t.Fatalf("credential = %+v", res.Credential)
	}
	if res.CorrelationKey != "user-77" {
		t.Fatalf("correlation key dropped: %q", res.CorrelationKey)
	}
}

func TestExchange_DuplicateCode(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "linkedin"}
	c := newTestCoordinator(memguard.New(), adapter)

	if _, err := c.Exchange(context.Background(), "linkedin", "code-dup", "", ""); err != nil {
		t.Fatalf("first exchange err: %v", err)
	}
	_, err := c.Exchange(context.Background(), "linkedin", "code-dup", "", "")
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("second exchange err = %v, want ErrDuplicateCode", err)
	}
	if got := atomic.LoadInt32(&adapter.exchanges); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
}

func TestExchange_ClaimSurvivesProviderFailure(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name: "linkedin",
		err: &providers.ExchangeError{
			Provider: "linkedin",
			Kind:     providers.KindProviderRejected,
			Code:     "invalid_grant",
		},
	}
	c := newTestCoordinator(memguard.New(), adapter)

	_, err := c.Exchange(context.Background(), "linkedin", "code-burn", "", "")
	var ee *providers.ExchangeError
	if !errors.As(err, &ee) || ee.Code != "invalid_grant" {
		t.Fatalf("first exchange err = %v, want the provider error untouched", err)
	}

	// The code is burned at the provider; the claim must not be released
	// to let a second attempt through.
	_, err = c.Exchange(context.Background(), "linkedin", "code-burn", "", "")
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("retry err = %v, want ErrDuplicateCode", err)
	}
	if got := atomic.LoadInt32(&adapter.exchanges); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
}

func TestExchange_GuardErrorFailsClosed(t *testing.T) {
	t.Parallel()

	storeDown := errors.New("connection refused")
	adapter := &fakeAdapter{name: "linkedin"}
	c := newTestCoordinator(&failingGuard{err: storeDown}, adapter)

	_, err := c.Exchange(context.Background(), "linkedin", "code-x", "", "")
	if !errors.Is(err, storeDown) {
		t.Fatalf("err = %v, want the store error wrapped", err)
	}
	if errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("a store failure must not masquerade as a duplicate")
	}
	if atomic.LoadInt32(&adapter.exchanges) != 0 {
		t.Fatalf("provider reached despite a failed claim")
	}
}

func TestExchange_UnknownProvider(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "linkedin"}
	c := newTestCoordinator(memguard.New(), adapter)

	_, err := c.Exchange(context.Background(), "myspace", "code-1", "", "")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestExchange_ConcurrentSameCodeSingleAttempt(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "linkedin", delay: 20 * time.Millisecond}
	c := newTestCoordinator(memguard.New(), adapter)

	const n = 8
	var wg sync.WaitGroup
	var successes, duplicates int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Exchange(context.Background(), "linkedin", "racy-code", "", "")
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, ErrDuplicateCode):
				atomic.AddInt32(&duplicates, 1)
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	// However the race resolves, the provider sees the code exactly once.
	if got := atomic.LoadInt32(&adapter.exchanges); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	if successes == 0 {
		t.Fatalf("no caller got the credential")
	}
	if successes+duplicates != n {
		t.Fatalf("successes=%d duplicates=%d, want %d total", successes, duplicates, n)
	}
}
