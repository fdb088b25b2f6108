package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/enrollhub/twofa/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uri = "otpauth://totp/EnrollHub:alice@example.com?issuer=EnrollHub&secret=JBSWY3DPEHPK3PXP"

func TestRenderer_PNG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []qrcode.Option
		wantSize int
	}{
		{name: "default size", wantSize: qrcode.DefaultSize},
		{name: "custom size", opts: []qrcode.Option{qrcode.WithSize(128)}, wantSize: 128},
		{name: "non-positive size ignored", opts: []qrcode.Option{qrcode.WithSize(-5)}, wantSize: qrcode.DefaultSize},
		{name: "high recovery", opts: []qrcode.Option{qrcode.WithHighRecovery(), qrcode.WithSize(300)}, wantSize: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := qrcode.NewRenderer(tt.opts...)
			assert.Equal(t, tt.wantSize, r.Size())

			data, err := r.PNG(uri)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, img.Bounds().Dx())
			assert.Equal(t, tt.wantSize, img.Bounds().Dy())
		})
	}
}

func TestRenderer_EmptyContent(t *testing.T) {
	t.Parallel()
	r := qrcode.NewRenderer()

	for _, content := range []string{"", "  \t\n"} {
		data, err := r.PNG(content)
		require.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Nil(t, data)

		s, err := r.DataURI(content)
		require.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Empty(t, s)
	}
}

func TestRenderer_DataURI(t *testing.T) {
	t.Parallel()
	r := qrcode.NewRenderer()

	s, err := r.DataURI(uri)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestRenderer_TooLong(t *testing.T) {
	t.Parallel()

	_, err := qrcode.NewRenderer().PNG(strings.Repeat("x", 8000))
	assert.ErrorIs(t, err, qrcode.ErrFailedToGenerateQRCode)
}
