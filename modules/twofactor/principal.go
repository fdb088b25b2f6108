package twofactor

import (
	"context"
	"net/http"

	"github.com/enrollhub/twofa/handler"
	svc "github.com/enrollhub/twofa/svc/twofactor"
)

// Headers read by HeaderPrincipal.
const (
	HeaderPrincipalKind = "X-Principal-Kind"
	HeaderPrincipalID   = "X-Principal-ID"
)

// PrincipalResolver identifies the already authenticated principal of a
// request. Authentication itself happens upstream.
type PrincipalResolver func(r *http.Request) (svc.Principal, error)

// HeaderPrincipal trusts identity headers set by an authenticating gateway.
// Only mount it behind a proxy that strips these headers from client input.
func HeaderPrincipal(r *http.Request) (svc.Principal, error) {
	kind, err := svc.ParseKind(r.Header.Get(HeaderPrincipalKind))
	if err != nil {
		return svc.Principal{}, err
	}
	return svc.NewPrincipal(kind, r.Header.Get(HeaderPrincipalID))
}

type principalKey struct{}

// principalFrom returns the principal stored by requirePrincipal.
func principalFrom(ctx context.Context) svc.Principal {
	return handler.ContextValue[svc.Principal](ctx, principalKey{})
}

func requirePrincipal(resolve PrincipalResolver, errHandler handler.ErrorHandler[handler.Context]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolve(r)
			if err != nil {
				errHandler(handler.NewContext(w, r), handler.ErrUnauthorized.WithMessage("principal required"))
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
