// Package server wires configuration into a ready http.Handler.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/socialgate/internal/alerts"
	"github.com/dropDatabas3/socialgate/internal/cache"
	memcache "github.com/dropDatabas3/socialgate/internal/cache/memory"
	redcache "github.com/dropDatabas3/socialgate/internal/cache/redis"
	"github.com/dropDatabas3/socialgate/internal/codeguard"
	memguard "github.com/dropDatabas3/socialgate/internal/codeguard/memory"
	pgguard "github.com/dropDatabas3/socialgate/internal/codeguard/pg"
	redguard "github.com/dropDatabas3/socialgate/internal/codeguard/redis"
	"github.com/dropDatabas3/socialgate/internal/config"
	"github.com/dropDatabas3/socialgate/internal/exchange"
	adminctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/admin"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/oauth"
	webhookctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/webhook"
	"github.com/dropDatabas3/socialgate/internal/http/router"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/providers/facebook"
	"github.com/dropDatabas3/socialgate/internal/providers/linkedin"
	"github.com/dropDatabas3/socialgate/internal/providers/tiktok"
	"github.com/dropDatabas3/socialgate/internal/providers/twitter"
	"github.com/dropDatabas3/socialgate/internal/security/secretbox"
	"github.com/dropDatabas3/socialgate/internal/security/state"
	"github.com/dropDatabas3/socialgate/internal/webhook"
)

// Build wires every dependency from cfg and returns the root handler plus
// a cleanup releasing pools and clients.
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	log := logger.L().With(logger.Layer("server"), logger.Component("wiring"))

	var cleanups []func() error
	cleanup := func() error {
		var firstErr error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	fail := func(err error) (http.Handler, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(promReg); err != nil {
		return fail(fmt.Errorf("register metrics: %w", err))
	}

	// Cache
	var appCache cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		rc := redcache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		cleanups = append(cleanups, rc.Close)
		appCache = rc
	default:
		ttl, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
		appCache = memcache.New(ttl)
	}

	// Claim store
	pingers := map[string]healthctrl.Pinger{}
	var guard codeguard.Guard
	var purger codeguard.Purger
	switch cfg.Storage.Driver {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.Storage.DSN)
		if err != nil {
			return fail(fmt.Errorf("parse storage dsn: %w", err))
		}
		if cfg.Storage.Postgres.MaxConns > 0 {
			poolCfg.MaxConns = int32(cfg.Storage.Postgres.MaxConns)
		}
		if s := cfg.Storage.Postgres.ConnMaxLifetime; s != "" {
			d, _ := time.ParseDuration(s)
			poolCfg.MaxConnLifetime = d
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		cleanups = append(cleanups, func() error { pool.Close(); return nil })
		pg := pgguard.New(pool)
		guard, purger = pg, pg
		pingers["claim_store"] = pool.Ping
	case "redis":
		rg := redguard.New(cfg.Storage.DSN, 0, cfg.Claims.Retention)
		cleanups = append(cleanups, rg.Close)
		guard = rg
		pingers["claim_store"] = rg.Ping
	default:
		mg := memguard.New()
		guard, purger = mg, mg
		log.Warn("claim store is in-process memory; single use is not enforced across instances")
	}
	if rc, ok := appCache.(*redcache.Cache); ok {
		pingers["cache"] = rc.Ping
	}

	// Provider registry
	registry := providers.NewRegistry()
	registry.RegisterFactory(facebook.ProviderName, facebook.Factory)
	registry.RegisterFactory(linkedin.ProviderName, linkedin.Factory)
	registry.RegisterFactory(tiktok.ProviderName, tiktok.Factory)
	registry.RegisterFactory(twitter.ProviderName, twitter.Factory)

	verifiers := map[string]*webhook.Verifier{}
	for name, pc := range cfg.EnabledProviders() {
		secret, err := resolveSecret(pc.ClientSecret)
		if err != nil {
			return fail(fmt.Errorf("provider %s: client secret: %w", name, err))
		}
		if err := registry.Configure(name, providers.Config{
			ClientID:     pc.ClientID,
			ClientSecret: secret,
			RedirectURI:  pc.RedirectURL,
			Scopes:       pc.Scopes,
		}); err != nil {
			return fail(err)
		}
		if pc.WebhookSecret != "" {
			whSecret, err := resolveSecret(pc.WebhookSecret)
			if err != nil {
				return fail(fmt.Errorf("provider %s: webhook secret: %w", name, err))
			}
			verifiers[name] = webhook.NewVerifier(whSecret, cfg.Webhooks.Tolerance)
		}
		log.Info("provider configured", logger.Provider(name))
	}

	// State signer
	signingKey := cfg.State.SigningKey
	if strings.TrimSpace(signingKey) == "" {
		// Dev convenience: an ephemeral key invalidates state tokens on
		// restart but keeps the endpoint usable. Validate blocks this
		// in prod.
		signingKey = uuid.NewString() + uuid.NewString()
		log.Warn("state.signing_key not set; using an ephemeral key")
	}
	signer, err := state.NewSigner(signingKey, cfg.State.TTL)
	if err != nil {
		return fail(err)
	}

	// Webhook dispatch
	var notifier webhook.Notifier
	if cfg.Alerts.Enabled && cfg.Alerts.To != "" {
		sender := alerts.FromConfig(alerts.SMTPConfig{
			Host:      cfg.Alerts.SMTP.Host,
			Port:      cfg.Alerts.SMTP.Port,
			FromEmail: cfg.Alerts.SMTP.From,
			Username:  cfg.Alerts.SMTP.Username,
			Password:  cfg.Alerts.SMTP.Password,
			TLSMode:   cfg.Alerts.SMTP.TLS,
		})
		sender.InsecureSkipVerify = cfg.Alerts.SMTP.InsecureSkipVerify
		notifier = alerts.NewHandlerFailureNotifier(sender, cfg.Alerts.To)
	}
	dispatcher := webhook.NewDispatcher(webhook.DispatcherDeps{
		Cache:       appCache,
		DedupWindow: cfg.Webhooks.DedupWindow,
		Notifier:    notifier,
	})
	registerEventHandlers(dispatcher)

	coordinator := exchange.New(exchange.Deps{
		Guard:    guard,
		Registry: registry,
		Cache:    appCache,
	})

	handler := router.New(router.Deps{
		OAuth: oauthctrl.New(oauthctrl.Deps{
			Coordinator: coordinator,
			Registry:    registry,
			Signer:      signer,
		}),
		Webhook: webhookctrl.New(webhookctrl.Deps{
			Verifiers:  verifiers,
			Dispatcher: dispatcher,
		}),
		Admin: adminctrl.New(adminctrl.Deps{
			Purger:    purger,
			Retention: cfg.Claims.Retention,
		}),
		Health: healthctrl.New(healthctrl.Deps{
			Registry: registry,
			Pingers:  pingers,
			Version:  cfg.App.Version,
		}),
		AdminKeyHash: cfg.Admin.APIKeyHash,
		PromRegistry: promReg,
	})

	return handler, cleanup, nil
}

// registerEventHandlers binds the event types the gateway acts on itself.
// Downstream consumers subscribe at the platform layer, not here.
func registerEventHandlers(d *webhook.Dispatcher) {
	d.Handle("ping", func(ctx context.Context, provider string, ev webhook.Event) error {
		logger.From(ctx).Info("webhook ping",
			logger.Provider(provider),
			logger.EventID(ev.ID),
		)
		return nil
	})
	// Token invalidation at the provider: nothing to revoke locally, the
	// gateway stores no credentials, but the event is worth a loud log
	// line for the platform operators.
	d.Handle("authorization.revoked", func(ctx context.Context, provider string, ev webhook.Event) error {
		logger.From(ctx).Warn("provider authorization revoked",
			logger.Provider(provider),
			logger.EventID(ev.ID),
		)
		return nil
	})
}

// resolveSecret decrypts "enc:" prefixed values with the secretbox master
// key; plain values pass through.
func resolveSecret(v string) (string, error) {
	if !strings.HasPrefix(v, "enc:") {
		return v, nil
	}
	if !secretbox.Ready() {
		return "", fmt.Errorf("secretbox master key not configured")
	}
	return secretbox.Decrypt(strings.TrimPrefix(v, "enc:"))
}
