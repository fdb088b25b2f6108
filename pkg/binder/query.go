package binder

import "net/http"

// Query binds URL query values into fields tagged `query:"name"`.
// Only the first value of a repeated parameter is used.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		lookup := func(name string) (string, bool) {
			if !values.Has(name) {
				return "", false
			}
			return values.Get(name), true
		}
		return bindToStruct(v, "query", lookup, ErrFailedToParseQuery)
	}
}
