package clientip

import "context"

type contextKey struct{}

// WithIP stores the client IP in ctx.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the IP stored by the middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Extract matches the extractor signature of audit.WithIPExtractor.
func Extract(ctx context.Context) (string, bool) {
	ip := FromContext(ctx)
	return ip, ip != ""
}
