package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/viant/rsession"
	"github.com/viant/rsession/lock"
	"github.com/viant/scy/cred/secret"
)

// EnvPrefix prefixes environment variables overriding configuration keys, e.g. RSESSION_REDIS_HOST.
const EnvPrefix = "RSESSION"

// Config represents process configuration.
type Config struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
	Debug    bool           `mapstructure:"debug"`
}

// RedisConfig defines backend connection; Endpoint (redis://host:port) overrides Host and Port.
type RedisConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Auth       string `mapstructure:"auth"`
	AuthSecret string `mapstructure:"authSecret"`
	Database   int    `mapstructure:"database"`
	Prefix     string `mapstructure:"prefix"`
}

// SessionConfig defines session record and lock settings.
type SessionConfig struct {
	Lifetime time.Duration `mapstructure:"lifetime"`
	LockTTL  time.Duration `mapstructure:"lockTTL"`
	MinWait  time.Duration `mapstructure:"minWait"`
	MaxWait  time.Duration `mapstructure:"maxWait"`
}

// HTTPConfig defines the demo server and session transport.
type HTTPConfig struct {
	Addr         string `mapstructure:"addr"`
	Location     string `mapstructure:"location"`
	Name         string `mapstructure:"name"`
	CookiePath   string `mapstructure:"cookiePath"`
	CookieDomain string `mapstructure:"cookieDomain"`
	CookieSecure bool   `mapstructure:"cookieSecure"`
	CookieMaxAge int    `mapstructure:"cookieMaxAge"`
	TopDomain    bool   `mapstructure:"topDomain"`
}

// WatchdogConfig defines forced lock release.
type WatchdogConfig struct {
	MaxHold  time.Duration `mapstructure:"maxHold"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from the optional file at path, environment variables and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := cfg.Redis.applyEndpoint(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Options returns session service options.
func (c *Config) Options() []rsession.Option {
	options := []rsession.Option{
		rsession.WithHost(c.Redis.Host),
		rsession.WithPort(c.Redis.Port),
		rsession.WithAuth(c.Redis.Auth),
		rsession.WithDatabase(c.Redis.Database),
		rsession.WithPrefix(c.Redis.Prefix),
		rsession.WithLifetime(c.Session.Lifetime),
		rsession.WithLockTTL(c.Session.LockTTL),
		rsession.WithBackoff(lock.Backoff{Min: c.Session.MinWait, Max: c.Session.MaxWait}),
	}
	if c.Redis.AuthSecret != "" {
		options = append(options, rsession.WithAuthSecret(secret.Resource(c.Redis.AuthSecret)))
	}
	return options
}

// WatchdogOptions returns watchdog options.
func (c *Config) WatchdogOptions() []lock.WatchdogOption {
	return []lock.WatchdogOption{
		lock.WithMaxHold(c.Watchdog.MaxHold),
		lock.WithInterval(c.Watchdog.Interval),
	}
}
