package clientip

import "net/http"

// Middleware resolves the client IP once per request and stores it in the
// request context for handlers, rate limiters and audit records.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithIP(r.Context(), res.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Key is a rate limiter key function keyed by the resolved client IP.
func Key(r *http.Request) string {
	return FromContext(r.Context())
}
