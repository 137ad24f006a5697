package http

import (
	"context"
	"net/http"

	"github.com/viant/rsession"
	"github.com/viant/rsession/http/common"
)

// Handler binds sessions to HTTP requests: it locates the incoming id, starts the session,
// publishes a new id to the client when one was minted or regenerated, and commits the
// session after the wrapped handler returns. A panicking handler releases the session locks
// without persisting its values.
type Handler struct {
	Options
	service *rsession.Service
}

// New creates a Handler.
func New(service *rsession.Service, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		Options: Options{
			Location: NewCookieLocation(DefaultName),
			Cookie:   &Cookie{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode},
			Logger:   rsession.DefaultLogger,
		},
	}
	for _, o := range opts {
		o(&h.Options)
	}
	if h.Options.Location == nil {
		h.Options.Location = NewCookieLocation(DefaultName)
	}
	if h.Options.OnUnavailable == nil {
		h.Options.OnUnavailable = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		}
	}
	return h
}

// Wrap returns next decorated with session handling.
func (h *Handler) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// release must happen even when the client goes away
		ctx := context.WithoutCancel(r.Context())
		incoming := h.Location.Locate(r)
		aSession := h.service.NewSession()
		if err := aSession.Start(ctx, incoming); err != nil {
			h.Logger.Errorf("failed to start session: %v", err)
			h.OnUnavailable(w, r, err)
			return
		}
		if aSession.ID() != incoming {
			h.publish(w, r, aSession.ID())
		}
		committed := false
		defer func() {
			if !committed {
				if err := aSession.Close(ctx); err != nil {
					h.Logger.Errorf("failed to release session %v: %v", aSession.ID(), err)
				}
			}
		}()
		next.ServeHTTP(w, r.WithContext(rsession.WithSession(r.Context(), aSession)))
		committed = true
		if err := aSession.Commit(ctx); err != nil {
			h.Logger.Errorf("failed to commit session %v: %v", aSession.ID(), err)
		}
	})
}

// Destroy deletes the session bound to the request and expires the client token.
// It must be called from within a wrapped handler before the response is written.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) error {
	aSession := rsession.FromContext(r.Context())
	if aSession == nil {
		return rsession.ErrNotOpen
	}
	if err := aSession.Destroy(context.WithoutCancel(r.Context()), ""); err != nil {
		return err
	}
	if h.Location.Kind == KindCookie {
		http.SetCookie(w, h.cookie(r, "", -1))
	}
	return nil
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request, id string) {
	if h.Location.Kind == KindCookie {
		maxAge := 0
		if h.Cookie != nil {
			maxAge = h.Cookie.MaxAge
		}
		http.SetCookie(w, h.cookie(r, id, maxAge))
		return
	}
	w.Header().Set(h.Location.Name, id)
}

func (h *Handler) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	attrs := h.Cookie
	if attrs == nil {
		attrs = &Cookie{}
	}
	domain := attrs.Domain
	if domain == "" && h.CookieUseTopDomain {
		domain = common.CookieDomain(common.ClientHost(r))
	}
	ck := &http.Cookie{
		Name:     h.Location.Name,
		Value:    value,
		Path:     attrs.Path,
		Domain:   domain,
		MaxAge:   maxAge,
		Secure:   attrs.Secure,
		HttpOnly: attrs.HttpOnly,
		SameSite: attrs.SameSite,
	}
	if ck.Path == "" {
		ck.Path = "/"
	}
	return ck
}
