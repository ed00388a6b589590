// Package exchange combines the single-use code guard with the provider
// adapters. It is the only path through which an authorization code may be
// traded for a credential.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/codeguard"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/providers"
)

var (
	// ErrDuplicateCode means the code was already claimed, here or on
	// another instance. The claim is never released; callers must restart
	// the authorization flow to obtain a fresh code.
	ErrDuplicateCode = errors.New("authorization code already used")

	// ErrUnknownProvider means no adapter is configured for the tag.
	ErrUnknownProvider = errors.New("unknown provider")
)

// outcomeTTL bounds how long an exchange outcome is remembered for log
// enrichment on duplicate submissions.
const outcomeTTL = 30 * time.Minute

// Result is what a successful exchange yields.
type Result struct {
	Provider       string
	Credential     *providers.Credential
	CorrelationKey string
}

// Coordinator routes exchange requests through the guard and the adapter.
type Coordinator interface {
	Exchange(ctx context.Context, provider, rawCode, redirectURI, correlationKey string) (*Result, error)
}

// Deps carries the coordinator's collaborators.
type Deps struct {
	Guard    codeguard.Guard
	Registry *providers.Registry
	Cache    cache.Cache
}

type coordinator struct {
	guard    codeguard.Guard
	registry *providers.Registry
	cache    cache.Cache
	group    singleflight.Group
}

// New creates a Coordinator.
func New(d Deps) Coordinator {
	return &coordinator{
		guard:    d.Guard,
		registry: d.Registry,
		cache:    d.Cache,
	}
}

// Exchange claims the code and, if the claim is granted, runs the provider
// exchange. Concurrent submissions of the same code within this instance
// collapse onto one attempt and share its outcome; submissions arriving
// after the attempt get ErrDuplicateCode. The claim survives provider
// failure: a burned code stays burned.
func (c *coordinator) Exchange(ctx context.Context, provider, rawCode, redirectURI, correlationKey string) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("exchange"),
		logger.Component("coordinator"),
		logger.Provider(provider),
	)

	adapter, ok := c.registry.Get(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	codeHash := codeguard.HashCode(rawCode)
	start := time.Now()

	v, err, shared := c.group.Do(codeHash, func() (any, error) {
		return c.exchangeOnce(ctx, log, adapter, codeHash, rawCode, redirectURI, correlationKey)
	})
	if shared {
		log.Debug("collapsed concurrent submission", logger.CodeHash(codeHash))
	}

	outcome := "success"
	switch {
	case errors.Is(err, ErrDuplicateCode):
		outcome = "duplicate"
	case err != nil:
		outcome = "failure"
	}
	metrics.ExchangeTotal.WithLabelValues(provider, outcome).Inc()
	metrics.ExchangeLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (c *coordinator) exchangeOnce(ctx context.Context, log *zap.Logger, adapter providers.Adapter, codeHash, rawCode, redirectURI, correlationKey string) (*Result, error) {
	res, err := c.guard.Claim(ctx, rawCode)
	if err != nil {
		log.Error("claim failed, refusing exchange", logger.CodeHash(codeHash), logger.Err(err))
		return nil, fmt.Errorf("claim code: %w", err)
	}
	if res == codeguard.AlreadyClaimed {
		prior := "unknown"
		if b, ok := c.cache.Get(outcomeKey(codeHash)); ok {
			prior = string(b)
		}
		log.Info("duplicate code rejected",
			logger.CodeHash(codeHash),
			logger.CorrelationKey(correlationKey),
			logger.String("prior_outcome", prior),
		)
		return nil, ErrDuplicateCode
	}

	cred, err := adapter.Exchange(ctx, rawCode, redirectURI)
	if err != nil {
		// The claim stands. Releasing it would reopen the race the
		// guard exists to close.
		c.cache.Set(outcomeKey(codeHash), []byte(failureLabel(err)), outcomeTTL)
		log.Warn("provider exchange failed after claim",
			logger.CodeHash(codeHash),
			logger.CorrelationKey(correlationKey),
			logger.Err(err),
		)
		return nil, err
	}

	c.cache.Set(outcomeKey(codeHash), []byte("success"), outcomeTTL)
	log.Info("exchange completed",
		logger.CodeHash(codeHash),
		logger.CorrelationKey(correlationKey),
		logger.Count(len(cred.Resources)),
	)
	return &Result{
		Provider:       adapter.Name(),
		Credential:     cred,
		CorrelationKey: correlationKey,
	}, nil
}

func outcomeKey(codeHash string) string {
	return "exchange:outcome:" + codeHash
}

func failureLabel(err error) string {
	var ee *providers.ExchangeError
	if errors.As(err, &ee) {
		return "failure:" + string(ee.Kind)
	}
	return "failure"
}
