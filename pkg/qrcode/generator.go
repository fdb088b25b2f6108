package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerateQRCode wraps errors from the encoder.
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is the image width and height in pixels.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Renderer encodes provisioning URIs into PNG QR codes.
type Renderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels. Non-positive values keep DefaultSize.
func WithSize(size int) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.size = size
		}
	}
}

// WithHighRecovery switches to the highest error correction level, for codes
// that may be printed or photographed at an angle.
func WithHighRecovery() Option {
	return func(r *Renderer) {
		r.level = skipqrcode.High
	}
}

// NewRenderer returns a Renderer with medium error correction.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{size: DefaultSize, level: skipqrcode.Medium}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the configured image size.
func (r *Renderer) Size() int {
	return r.size
}

// PNG returns the QR code for content as PNG bytes.
func (r *Renderer) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// DataURI returns the QR code as a base64 PNG data URI, ready for an <img src>.
func (r *Renderer) DataURI(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
