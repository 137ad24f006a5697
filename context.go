package rsession

import "context"

// WithSession returns a context carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// FromContext returns session carried by ctx or nil.
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	session, _ := ctx.Value(SessionKey).(*Session)
	return session
}
