// Package config loads the YAML configuration and applies environment
// overrides. Env always wins over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig is one social provider block. ClientSecret and
// WebhookSecret accept "enc:" prefixed values decrypted at wiring time.
type ProviderConfig struct {
	Enabled       bool     `yaml:"enabled"`
	ClientID      string   `yaml:"client_id"`
	ClientSecret  string   `yaml:"client_secret"`
	RedirectURL   string   `yaml:"redirect_url"`
	Scopes        []string `yaml:"scopes"`
	WebhookSecret string   `yaml:"webhook_secret"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// postgres | redis | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Claims struct {
		// Retention for claimed code hashes; expired claims guard
		// codes the provider no longer accepts anyway.
		Retention time.Duration `yaml:"retention"`
	} `yaml:"claims"`

	State struct {
		SigningKey string        `yaml:"signing_key"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"state"`

	Webhooks struct {
		Tolerance   time.Duration `yaml:"tolerance"`
		DedupWindow time.Duration `yaml:"dedup_window"`
	} `yaml:"webhooks"`

	Admin struct {
		// bcrypt hash of the operator key; empty closes /admin.
		APIKeyHash string `yaml:"api_key_hash"`
	} `yaml:"admin"`

	Alerts struct {
		Enabled bool   `yaml:"enabled"`
		To      string `yaml:"to"`
		SMTP    struct {
			Host               string `yaml:"host"`
			Port               int    `yaml:"port"`
			Username           string `yaml:"username"`
			Password           string `yaml:"password"`
			From               string `yaml:"from"`
			TLS                string `yaml:"tls"` // auto | starttls | ssl | none
			InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
		} `yaml:"smtp"`
	} `yaml:"alerts"`

	Security struct {
		SecretBoxMasterKey string `yaml:"secretbox_master_key"` // base64(32 bytes)
	} `yaml:"security"`

	Providers struct {
		Facebook ProviderConfig `yaml:"facebook"`
		LinkedIn ProviderConfig `yaml:"linkedin"`
		TikTok   ProviderConfig `yaml:"tiktok"`
		Twitter  ProviderConfig `yaml:"twitter"`
	} `yaml:"providers"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Claims.Retention == 0 {
		c.Claims.Retention = 24 * time.Hour
	}
	if c.State.TTL == 0 {
		c.State.TTL = 10 * time.Minute
	}
	if c.Webhooks.Tolerance == 0 {
		c.Webhooks.Tolerance = 5 * time.Minute
	}
	if c.Webhooks.DedupWindow == 0 {
		c.Webhooks.DedupWindow = 24 * time.Hour
	}
	if c.Alerts.SMTP.TLS == "" {
		c.Alerts.SMTP.TLS = "auto"
	}

	// validate string durations
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}
	if _, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err != nil {
		return nil, err
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the combinations that must never reach production.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres, redis or memory, got %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.kind must be memory or redis, got %q", c.Cache.Kind)
	}
	if strings.EqualFold(c.App.Env, "prod") {
		// A per-process claim map cannot enforce single use across
		// instances.
		if c.Storage.Driver == "memory" {
			return fmt.Errorf("storage.driver=memory is not allowed in prod")
		}
		if strings.TrimSpace(c.State.SigningKey) == "" {
			return fmt.Errorf("state.signing_key is required in prod")
		}
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides lets the environment win over config.yaml.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// CLAIMS
	if v, ok := getEnvDur("CLAIMS_RETENTION"); ok {
		c.Claims.Retention = v
	}

	// STATE
	if v, ok := getEnvStr("STATE_SIGNING_KEY"); ok {
		c.State.SigningKey = v
	}
	if v, ok := getEnvDur("STATE_TTL"); ok {
		c.State.TTL = v
	}

	// WEBHOOKS
	if v, ok := getEnvDur("WEBHOOKS_TOLERANCE"); ok {
		c.Webhooks.Tolerance = v
	}
	if v, ok := getEnvDur("WEBHOOKS_DEDUP_WINDOW"); ok {
		c.Webhooks.DedupWindow = v
	}

	// ADMIN
	if v, ok := getEnvStr("ADMIN_API_KEY_HASH"); ok {
		c.Admin.APIKeyHash = v
	}

	// ALERTS
	if v, ok := getEnvBool("ALERTS_ENABLED"); ok {
		c.Alerts.Enabled = v
	}
	if v, ok := getEnvStr("ALERTS_TO"); ok {
		c.Alerts.To = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Alerts.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Alerts.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.Alerts.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.Alerts.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.Alerts.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.Alerts.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.Alerts.SMTP.InsecureSkipVerify = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxMasterKey = v
	}

	// PROVIDERS
	c.Providers.Facebook.applyEnv("FACEBOOK")
	c.Providers.LinkedIn.applyEnv("LINKEDIN")
	c.Providers.TikTok.applyEnv("TIKTOK")
	c.Providers.Twitter.applyEnv("TWITTER")
}

func (p *ProviderConfig) applyEnv(prefix string) {
	if v, ok := getEnvBool(prefix + "_ENABLED"); ok {
		p.Enabled = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URL"); ok {
		p.RedirectURL = v
	}
	if v, ok := getEnvCSV(prefix + "_SCOPES"); ok && len(v) > 0 {
		p.Scopes = v
	}
	if v, ok := getEnvStr(prefix + "_WEBHOOK_SECRET"); ok {
		p.WebhookSecret = v
	}
}

// Enabled returns the provider blocks that are switched on, keyed by tag.
func (c *Config) EnabledProviders() map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, 4)
	if c.Providers.Facebook.Enabled {
		out["facebook"] = c.Providers.Facebook
	}
	if c.Providers.LinkedIn.Enabled {
		out["linkedin"] = c.Providers.LinkedIn
	}
	if c.Providers.TikTok.Enabled {
		out["tiktok"] = c.Providers.TikTok
	}
	if c.Providers.Twitter.Enabled {
		out["twitter"] = c.Providers.Twitter
	}
	return out
}
