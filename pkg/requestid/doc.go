// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header from the client or
// generates a UUIDv7, stores it in the request context and echoes it in the
// response. FromContext and Extract read it back; LoggerExtractor feeds it to
// slog through logger.NewContextHandler, and Extract plugs directly into
// audit.WithRequestIDExtractor so audit records carry the same id as logs.
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
package requestid
