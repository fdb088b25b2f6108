// Package binder fills request structs from an *http.Request.
//
// Each binder handles one source and only touches fields tagged for it:
//
//	type VerifyRequest struct {
//		Token string `path:"token"`
//		Code  string `json:"code"`
//	}
//
//	type AuditRequest struct {
//		Limit int `query:"limit"`
//	}
//
// JSON decodes strictly (unknown fields and trailing data fail) and caps the
// body at DefaultMaxJSONSize. A bodyless request without a Content-Type
// returns ErrBinderNotApplicable, which handler.Wrap treats as "skip".
// Path reads chi route parameters; Query reads the URL query string.
//
// Supported field kinds are strings, integers, booleans and pointers to them.
package binder
