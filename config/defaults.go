package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/viant/rsession"
	"github.com/viant/rsession/lock"
)

func setDefaults(v *viper.Viper) {
	// Redis
	v.SetDefault("redis.endpoint", "")
	v.SetDefault("redis.host", rsession.DefaultHost)
	v.SetDefault("redis.port", rsession.DefaultPort)
	v.SetDefault("redis.auth", "")
	v.SetDefault("redis.authSecret", "")
	v.SetDefault("redis.database", rsession.DefaultDatabase)
	v.SetDefault("redis.prefix", rsession.DefaultPrefix)

	// Session
	v.SetDefault("session.lifetime", rsession.DefaultLifetime)
	v.SetDefault("session.lockTTL", rsession.DefaultLockTTL)
	v.SetDefault("session.minWait", lock.MinWait)
	v.SetDefault("session.maxWait", lock.MaxWait)

	// HTTP
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.location", "cookie")
	v.SetDefault("http.name", "RSESSID")
	v.SetDefault("http.cookiePath", "/")
	v.SetDefault("http.cookieDomain", "")
	v.SetDefault("http.cookieSecure", false)
	v.SetDefault("http.cookieMaxAge", 0)
	v.SetDefault("http.topDomain", false)

	// Watchdog
	v.SetDefault("watchdog.maxHold", time.Duration(0))
	v.SetDefault("watchdog.interval", time.Second)

	v.SetDefault("debug", false)
}
