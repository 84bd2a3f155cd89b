// Package config loads trustdash configuration from defaults, an optional YAML
// file, TRUSTDASH_* environment variables and command flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "TRUSTDASH"

	// DevSigningKey is the default JWT key. Regulated mode refuses it.
	DevSigningKey = "dev-secret-key-change-in-production"
)

// Config is the full application configuration.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Auth      Auth      `mapstructure:"auth"`
	Ledger    Ledger    `mapstructure:"ledger"`
	Cache     Cache     `mapstructure:"cache"`
	Redis     Redis     `mapstructure:"redis"`
	Postgres  Postgres  `mapstructure:"postgres"`
	Audit     Audit     `mapstructure:"audit"`
	Wallet    Wallet    `mapstructure:"wallet"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Log       Log       `mapstructure:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `mapstructure:"addr"`
	// RegulatedMode refuses development defaults such as the dev signing key
	// and the in-memory ledger.
	RegulatedMode   bool          `mapstructure:"regulated"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Auth struct {
	SigningKey string        `mapstructure:"jwt_signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// Ledger selects where trust relations come from.
type Ledger struct {
	Backend    string        `mapstructure:"backend"` // memory, postgres, gateway, rpc
	GatewayURL string        `mapstructure:"gateway_url"`
	RPCURL     string        `mapstructure:"rpc_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Cache selects the relation snapshot cache.
type Cache struct {
	Backend string        `mapstructure:"backend"` // none, memory, redis
	TTL     time.Duration `mapstructure:"ttl"`
}

type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

// Audit selects the audit store.
type Audit struct {
	Backend     string   `mapstructure:"backend"` // memory, postgres, kafka
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	AsyncBuffer int      `mapstructure:"async_buffer"`
	// SampleRate applies to operations-category events only.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Wallet selects how native balances are read.
type Wallet struct {
	Backend string `mapstructure:"backend"` // static, rpc
	RPCURL  string `mapstructure:"rpc_url"`
	// StaticBalanceWei is what the static reader reports for every account.
	StaticBalanceWei string `mapstructure:"static_balance_wei"`
}

// RateLimit bounds authenticated traffic per account.
type RateLimit struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // memory, redis
	Reads   int           `mapstructure:"reads"`
	Writes  int           `mapstructure:"writes"`
	Window  time.Duration `mapstructure:"window"`
}

type Log struct {
	Format string `mapstructure:"format"` // json, text
	Level  string `mapstructure:"level"`
}

var defaults = map[string]any{
	"server.addr":             ":8080",
	"server.regulated":        false,
	"server.shutdown_timeout": 10 * time.Second,

	"auth.jwt_signing_key": DevSigningKey,
	"auth.issuer":          "trustdash",
	"auth.audience":        "trustdash",
	"auth.token_ttl":       time.Hour,

	"ledger.backend":     "memory",
	"ledger.gateway_url": "",
	"ledger.rpc_url":     "",
	"ledger.timeout":     10 * time.Second,

	"cache.backend": "none",
	"cache.ttl":     30 * time.Second,

	"redis.url":            "",
	"redis.pool_size":      10,
	"redis.min_idle_conns": 2,
	"redis.dial_timeout":   5 * time.Second,
	"redis.read_timeout":   3 * time.Second,
	"redis.write_timeout":  3 * time.Second,

	"postgres.dsn": "",

	"audit.backend":      "memory",
	"audit.brokers":      []string{},
	"audit.topic":        "trustdash.audit",
	"audit.async_buffer": 0,
	"audit.sample_rate":  1.0,

	"wallet.backend":            "static",
	"wallet.rpc_url":            "",
	"wallet.static_balance_wei": "0",

	"ratelimit.enabled": true,
	"ratelimit.backend": "memory",
	"ratelimit.reads":   100,
	"ratelimit.writes":  30,
	"ratelimit.window":  time.Minute,

	"log.format": "text",
	"log.level":  "info",
}

// FlagKeys maps command flag names to configuration keys.
var FlagKeys = map[string]string{
	"addr":      "server.addr",
	"regulated": "server.regulated",
	"ledger":    "ledger.backend",
	"cache":     "cache.backend",
	"audit":     "audit.backend",
	"log-level": "log.level",
}

// Load reads the configuration. cmd may be nil; file may be empty.
func Load(cmd *cobra.Command, file string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("trustdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range FlagKeys {
			if flag := cmd.Flags().Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend selections and the settings each one needs.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed ...string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value))
		}
	}
	require := func(cond bool, msg string) {
		if !cond {
			errs = append(errs, errors.New(msg))
		}
	}

	oneOf("ledger.backend", c.Ledger.Backend, "memory", "postgres", "gateway", "rpc")
	oneOf("cache.backend", c.Cache.Backend, "none", "memory", "redis")
	oneOf("audit.backend", c.Audit.Backend, "memory", "postgres", "kafka")
	oneOf("wallet.backend", c.Wallet.Backend, "static", "rpc")
	oneOf("ratelimit.backend", c.RateLimit.Backend, "memory", "redis")
	oneOf("log.format", c.Log.Format, "json", "text")

	usesPostgres := c.Ledger.Backend == "postgres" || c.Audit.Backend == "postgres"
	require(!usesPostgres || c.Postgres.DSN != "", "postgres.dsn is required by the postgres backends")
	require(c.Ledger.Backend != "gateway" || c.Ledger.GatewayURL != "", "ledger.gateway_url is required by the gateway ledger")
	require(c.Ledger.Backend != "rpc" || c.Ledger.RPCURL != "", "ledger.rpc_url is required by the rpc ledger")
	require(c.Ledger.Backend != "rpc" || c.Ledger.GatewayURL != "", "ledger.gateway_url is required for rpc ledger writes")
	require(c.Cache.Backend != "redis" || c.Redis.URL != "", "redis.url is required by the redis cache")
	require(!c.RateLimit.Enabled || c.RateLimit.Backend != "redis" || c.Redis.URL != "", "redis.url is required by the redis rate limiter")
	require(!c.RateLimit.Enabled || (c.RateLimit.Reads > 0 && c.RateLimit.Writes > 0 && c.RateLimit.Window > 0), "ratelimit reads, writes and window must be positive")
	require(c.Audit.Backend != "kafka" || len(c.Audit.Brokers) > 0, "audit.brokers is required by the kafka audit store")
	require(c.Wallet.Backend != "rpc" || c.Wallet.RPCURL != "", "wallet.rpc_url is required by the rpc wallet")
	require(c.Audit.SampleRate >= 0 && c.Audit.SampleRate <= 1, "audit.sample_rate must be within [0, 1]")
	require(c.Auth.SigningKey != "", "auth.jwt_signing_key is required")
	require(c.Auth.TokenTTL > 0, "auth.token_ttl must be positive")

	if c.Server.RegulatedMode {
		require(c.Auth.SigningKey != DevSigningKey, "regulated mode refuses the development signing key")
		require(c.Ledger.Backend != "memory", "regulated mode refuses the in-memory ledger")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
