package http

import (
	"net/http"

	"github.com/viant/rsession"
)

// DefaultName is the default session cookie name.
const DefaultName = "RSESSID"

// Cookie defines attributes of the session cookie; the same attributes are used whenever the id is rewritten.
type Cookie struct {
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
	MaxAge   int
}

// Options exposes configurable attributes of the handler.
type Options struct {
	// Location defines where session id is transported (cookie, header or query)
	Location *Location
	Cookie   *Cookie
	// If true and Cookie.Domain is empty, set cookie Domain to the request's top domain (eTLD+1).
	CookieUseTopDomain bool
	Logger             rsession.Logger
	// OnUnavailable writes the response when the session cannot be started.
	OnUnavailable func(w http.ResponseWriter, r *http.Request, err error)
}

// Option mutates Options.
type Option func(*Options)

// WithLocation overrides default cookie location.
func WithLocation(location *Location) Option { return func(o *Options) { o.Location = location } }

// WithCookie sets cookie attributes.
func WithCookie(cookie *Cookie) Option { return func(o *Options) { o.Cookie = cookie } }

// WithCookieUseTopDomain enables auto Domain=eTLD+1 when Cookie.Domain is empty.
func WithCookieUseTopDomain(v bool) Option { return func(o *Options) { o.CookieUseTopDomain = v } }

// WithLogger sets logger.
func WithLogger(logger rsession.Logger) Option { return func(o *Options) { o.Logger = logger } }

// WithOnUnavailable sets the unavailable response writer.
func WithOnUnavailable(fn func(w http.ResponseWriter, r *http.Request, err error)) Option {
	return func(o *Options) { o.OnUnavailable = fn }
}
