package binder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Path binds chi URL parameters into fields tagged `path:"name"`.
func Path() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return ErrBinderNotApplicable
		}

		lookup := func(name string) (string, bool) {
			for i, key := range rctx.URLParams.Keys {
				if key == name {
					return rctx.URLParams.Values[i], true
				}
			}
			return "", false
		}
		return bindToStruct(v, "path", lookup, ErrFailedToParsePath)
	}
}
