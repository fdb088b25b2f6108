package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhub/twofa/pkg/binder"
)

type request struct {
	Token   string `path:"token"`
	Limit   int    `query:"limit"`
	Verbose *bool  `query:"verbose"`
	Code    string `json:"code"`
	Ignored string
}

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
		wantCode    string
	}{
		{name: "valid", body: `{"code":"123456"}`, contentType: "application/json", wantCode: "123456"},
		{name: "charset param", body: `{"code":"1"}`, contentType: "application/json; charset=utf-8", wantCode: "1"},
		{name: "no body no type", wantErr: binder.ErrBinderNotApplicable},
		{name: "body without type", body: `{}`, wantErr: binder.ErrMissingContentType},
		{name: "wrong type", body: `code=1`, contentType: "text/plain", wantErr: binder.ErrUnsupportedMediaType},
		{name: "malformed", body: `{"code"`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "unknown field", body: `{"other":1}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "trailing data", body: `{"code":"1"}{"code":"2"}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "empty with type", contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
		{name: "too large", body: `{"code":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`, contentType: "application/json", wantErr: binder.ErrFailedToParseJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var body *strings.Reader
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.body != "" {
				body = strings.NewReader(tt.body)
				req = httptest.NewRequest(http.MethodPost, "/", body)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			var got request
			err := binder.JSON()(req, &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	var (
		got     request
		bindErr error
	)
	r := chi.NewRouter()
	r.Get("/sessions/{token}", func(w http.ResponseWriter, req *http.Request) {
		bindErr = binder.Path()(req, &got)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/tok-123", nil))

	require.NoError(t, bindErr)
	assert.Equal(t, "tok-123", got.Token)
	assert.Empty(t, got.Ignored)

	err := binder.Path()(httptest.NewRequest(http.MethodGet, "/", nil), &got)
	assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	var got request
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&verbose=true&ignored=x", nil)
	require.NoError(t, binder.Query()(req, &got))
	assert.Equal(t, 25, got.Limit)
	require.NotNil(t, got.Verbose)
	assert.True(t, *got.Verbose)
	assert.Empty(t, got.Ignored)

	err := binder.Query()(httptest.NewRequest(http.MethodGet, "/?limit=many", nil), &got)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)

	err = binder.Query()(httptest.NewRequest(http.MethodGet, "/", nil), got)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
}
