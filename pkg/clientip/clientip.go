package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Common proxy headers, in the order they are usually trusted.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
)

// Resolver extracts the originating client address from a request.
// Only headers listed as trusted are consulted; anything else a client can
// set freely and would let it dodge per-IP rate limits.
type Resolver struct {
	headers []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTrustedHeaders sets the proxy headers to consult, highest priority first.
// Comma separated values (X-Forwarded-For) yield their first valid address.
func WithTrustedHeaders(headers ...string) Option {
	return func(r *Resolver) {
		r.headers = r.headers[:0]
		for _, h := range headers {
			if h = strings.TrimSpace(h); h != "" {
				r.headers = append(r.headers, http.CanonicalHeaderKey(h))
			}
		}
	}
}

// NewResolver returns a Resolver. Without options only RemoteAddr is used.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the normalized client IP, or "" when none is valid.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, name := range res.headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		for part := range strings.SplitSeq(value, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an address, returning "" if invalid.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
