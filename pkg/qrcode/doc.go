// Package qrcode renders otpauth provisioning URIs as PNG QR codes.
//
// It wraps github.com/skip2/go-qrcode:
//
//	r := qrcode.NewRenderer(qrcode.WithSize(256))
//	uri, err := r.DataURI("otpauth://totp/EnrollHub:alice?secret=...")
//
// DataURI output can be dropped into an <img src="..."> attribute as is.
// Empty content returns ErrEmptyContent; encoder failures are joined with
// ErrFailedToGenerateQRCode.
package qrcode
