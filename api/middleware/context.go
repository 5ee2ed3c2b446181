package middleware

import "context"

type contextKey string

const ctxCallerEmail contextKey = "caller_email"

// CallerEmailFromContext returns the authenticated caller's email, or "".
func CallerEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCallerEmail).(string); ok {
		return v
	}
	return ""
}

// WithCallerEmail injects the caller email into the context.
func WithCallerEmail(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCallerEmail, email)
}
