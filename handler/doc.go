// Package handler provides type-safe JSON HTTP handlers.
//
// A handler is a generic function that receives a bound request value and
// returns a Response:
//
//	type VerifyRequest struct {
//		Token string `path:"token"`
//		Code  string `json:"code"`
//	}
//
//	func verify(ctx handler.Context, req VerifyRequest) handler.Response {
//		if err := svc.Verify(ctx, req.Token, req.Code); err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.Empty()
//	}
//
//	r.Post("/sessions/{token}/verify", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](binder.Path(), binder.JSON()),
//		handler.WithErrorHandler[handler.Context, VerifyRequest](errHandler),
//	))
//
// # Responses
//
// JSON wraps a value in the {"data": ...} envelope. JSONError renders
// {"error": {"code", "message"}}; the status comes from an HTTPError or a
// ValidationError in the chain, any other error becomes an opaque 500 so
// internal details never reach the client. Empty writes a bare status.
//
// # Errors
//
// Binding and rendering failures go to the ErrorHandler. NewErrorHandler logs
// them with the request id and renders a JSON error.
package handler
