// Package clientip resolves the originating client address of an HTTP
// request, optionally through a configured set of trusted proxy headers.
//
//	res := clientip.NewResolver(clientip.WithTrustedHeaders(clientip.HeaderXForwardedFor))
//	router.Use(res.Middleware)
//
//	// later, in a handler
//	ip := clientip.FromContext(r.Context())
//
// Headers that are not explicitly trusted are ignored. Resolve never fails;
// it returns an empty string when no valid address can be found.
package clientip
