package rsession

import (
	"context"
	"fmt"

	"github.com/viant/rsession/identity"
	"github.com/viant/rsession/lock"
	"github.com/viant/rsession/store"
	"github.com/viant/scy/cred/secret"
)

// Service creates sessions sharing one configuration; it is safe for concurrent use.
type Service struct {
	options Options
	config  store.Config
}

// New validates options and creates a Service. Invalid configuration or an unresolvable
// auth secret fails here, before any session is opened.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{options: defaultOptions()}
	for _, option := range options {
		option(&ret.options)
	}
	if err := ret.options.validate(); err != nil {
		return nil, err
	}
	if ret.options.AuthSecret != "" {
		secrets := secret.New()
		cred, err := secrets.GetCredentials(ctx, string(ret.options.AuthSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to load backend secret %v: %w", ret.options.AuthSecret, err)
		}
		// basic credentials are embedded within SSH credentials
		ret.options.Auth = cred.SSH.Password
	}
	ret.config = store.Config{
		Host:     ret.options.Host,
		Port:     ret.options.Port,
		Auth:     ret.options.Auth,
		Database: ret.options.Database,
		Prefix:   ret.options.Prefix,
	}
	return ret, nil
}

func (o *Options) validate() error {
	switch {
	case o.Dialer == nil:
		return fmt.Errorf("%w: dialer was nil", ErrInvalidOption)
	case o.Serializer == nil:
		return fmt.Errorf("%w: serializer was nil", ErrInvalidOption)
	case o.Generator == nil:
		return fmt.Errorf("%w: generator was nil", ErrInvalidOption)
	case o.Host == "":
		return fmt.Errorf("%w: host was empty", ErrInvalidOption)
	case o.Port < 1 || o.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", ErrInvalidOption, o.Port)
	case o.Database < 0:
		return fmt.Errorf("%w: invalid database %d", ErrInvalidOption, o.Database)
	case o.Lifetime <= 0:
		return fmt.Errorf("%w: lifetime must be positive, was %s", ErrInvalidOption, o.Lifetime)
	case o.Backoff.Min <= 0 || o.Backoff.Max < o.Backoff.Min:
		return fmt.Errorf("%w: invalid backoff %s..%s", ErrInvalidOption, o.Backoff.Min, o.Backoff.Max)
	}
	if o.IDMutator == nil {
		o.IDMutator = IdentityMutator
	}
	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	if o.Sleeper == nil {
		o.Sleeper = lock.Sleep
	}
	return nil
}

// Options returns a copy of the effective options.
func (s *Service) Options() Options {
	return s.options
}

// NewSession creates a closed session for one execution context.
func (s *Service) NewSession() *Session {
	generator := identity.GeneratorFunc(func() (string, error) {
		id, err := s.options.Generator.Generate()
		if err != nil {
			return "", err
		}
		return s.options.IDMutator.MutateID(id), nil
	})
	return &Session{
		service:  s,
		resolver: identity.NewResolver(generator),
		replaced: map[string]struct{}{},
		acquired: map[string]struct{}{},
		values:   Values{},
	}
}

func (s *Service) lockOptions() []lock.Option {
	return []lock.Option{
		lock.WithTTL(s.options.LockTTL),
		lock.WithBackoff(s.options.Backoff),
		lock.WithSleeper(s.options.Sleeper),
		lock.WithLogger(s.options.Logger),
	}
}
