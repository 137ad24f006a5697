package config

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/viant/afs/url"
)

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Redis.Host == "" {
		return errors.New("redis host must be specified")
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port %d", c.Redis.Port)
	}
	if c.Redis.Database < 0 {
		return fmt.Errorf("invalid redis database %d", c.Redis.Database)
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("session.lifetime must be positive")
	}
	if c.Session.MinWait <= 0 || c.Session.MaxWait < c.Session.MinWait {
		return fmt.Errorf("invalid lock wait range %s..%s", c.Session.MinWait, c.Session.MaxWait)
	}
	switch strings.ToLower(c.HTTP.Location) {
	case "cookie", "header", "query":
	default:
		return fmt.Errorf("unsupported http.location %q", c.HTTP.Location)
	}
	if c.HTTP.Name == "" {
		return errors.New("http.name must be specified")
	}
	if c.Watchdog.MaxHold > 0 && c.Watchdog.Interval <= 0 {
		return errors.New("watchdog.interval must be positive when watchdog.maxHold is set")
	}
	return nil
}

func (r *RedisConfig) applyEndpoint() error {
	if r.Endpoint == "" {
		return nil
	}
	if scheme := url.Scheme(r.Endpoint, "redis"); scheme != "redis" {
		return fmt.Errorf("unsupported redis endpoint scheme %q", scheme)
	}
	hostPort := url.Host(r.Endpoint)
	if i := strings.LastIndex(hostPort, "@"); i != -1 {
		hostPort = hostPort[i+1:]
	}
	if err := r.applyUserInfo(); err != nil {
		return err
	}
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		r.Host = hostPort
		return nil
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid redis endpoint port %q: %w", port, err)
	}
	r.Host, r.Port = host, p
	return nil
}

// applyUserInfo copies the endpoint password into Auth; it conflicts with an explicit auth setting.
func (r *RedisConfig) applyUserInfo() error {
	parsed, err := neturl.Parse(r.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid redis endpoint: %w", err)
	}
	if parsed.User == nil {
		return nil
	}
	password, ok := parsed.User.Password()
	if !ok || password == "" {
		return nil
	}
	if r.Auth != "" && r.Auth != password {
		return errors.New("redis endpoint password conflicts with redis.auth")
	}
	r.Auth = password
	return nil
}
