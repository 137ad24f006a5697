package rsession

import (
	"time"

	"github.com/viant/rsession/identity"
	"github.com/viant/rsession/lock"
	"github.com/viant/rsession/store"
	"github.com/viant/scy/cred/secret"
)

// Options exposes configurable attributes of the session service.
type Options struct {
	Host string
	Port int
	// Auth is the backend password; AuthSecret, when set, takes precedence and is resolved once on construction
	Auth       string
	AuthSecret secret.Resource
	// Lifetime is the session record TTL, refreshed on every write
	Lifetime time.Duration
	Database int
	Prefix   string

	// LockTTL is the maximum lock hold time; non-positive disables lock expiry
	LockTTL time.Duration
	Backoff lock.Backoff
	Sleeper lock.Sleeper

	Serializer Serializer
	IDMutator  IdentifierMutator
	Generator  identity.Generator
	Dialer     store.Dialer
	Logger     Logger
	// Watchdog, when set, tracks locks of open sessions
	Watchdog *lock.Watchdog
}

// Option mutates Options.
type Option func(*Options)

// WithHost sets backend host.
func WithHost(host string) Option { return func(o *Options) { o.Host = host } }

// WithPort sets backend port.
func WithPort(port int) Option { return func(o *Options) { o.Port = port } }

// WithAuth sets backend password.
func WithAuth(auth string) Option { return func(o *Options) { o.Auth = auth } }

// WithAuthSecret sets secret resource holding backend password.
func WithAuthSecret(resource secret.Resource) Option {
	return func(o *Options) { o.AuthSecret = resource }
}

// WithLifetime sets session record TTL.
func WithLifetime(d time.Duration) Option { return func(o *Options) { o.Lifetime = d } }

// WithDatabase sets backend database index.
func WithDatabase(db int) Option { return func(o *Options) { o.Database = db } }

// WithPrefix sets key namespace prefix.
func WithPrefix(prefix string) Option { return func(o *Options) { o.Prefix = prefix } }

// WithLockTTL sets maximum lock hold time.
func WithLockTTL(d time.Duration) Option { return func(o *Options) { o.LockTTL = d } }

// WithBackoff sets lock retry backoff.
func WithBackoff(backoff lock.Backoff) Option { return func(o *Options) { o.Backoff = backoff } }

// WithSleeper replaces the wait between lock attempts.
func WithSleeper(sleeper lock.Sleeper) Option { return func(o *Options) { o.Sleeper = sleeper } }

// WithSerializer sets payload serializer.
func WithSerializer(serializer Serializer) Option {
	return func(o *Options) { o.Serializer = serializer }
}

// WithIDMutator sets mutator applied to minted ids.
func WithIDMutator(mutator IdentifierMutator) Option {
	return func(o *Options) { o.IDMutator = mutator }
}

// WithGenerator sets session id generator.
func WithGenerator(generator identity.Generator) Option {
	return func(o *Options) { o.Generator = generator }
}

// WithDialer sets backend dialer.
func WithDialer(dialer store.Dialer) Option { return func(o *Options) { o.Dialer = dialer } }

// WithLogger sets logger.
func WithLogger(logger Logger) Option { return func(o *Options) { o.Logger = logger } }

// WithWatchdog registers open sessions with watchdog.
func WithWatchdog(watchdog *lock.Watchdog) Option {
	return func(o *Options) { o.Watchdog = watchdog }
}

func defaultOptions() Options {
	return Options{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Lifetime:   DefaultLifetime,
		Database:   DefaultDatabase,
		Prefix:     DefaultPrefix,
		LockTTL:    DefaultLockTTL,
		Backoff:    lock.DefaultBackoff(),
		Sleeper:    lock.Sleep,
		Serializer: JSONSerializer{},
		IDMutator:  IdentityMutator,
		Generator:  identity.UUIDGenerator{},
		Dialer:     store.DialRedis,
		Logger:     DefaultLogger,
	}
}
