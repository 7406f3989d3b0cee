package session

import "context"

type contextKey struct{}

// WithSession returns a copy of ctx carrying the session.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok && sess != nil
}
