package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhub/twofa/handler"
	"github.com/enrollhub/twofa/pkg/binder"
)

type echoRequest struct {
	Token string `path:"token"`
	Code  string `json:"code"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func newRouter(h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Post("/echo/{token}", h)
	return r
}

func TestWrap_BindsPathAndJSON(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		return handler.JSON(req)
	}, handler.WithBinders[handler.Context, echoRequest](binder.Path(), binder.JSON()))

	req := httptest.NewRequest(http.MethodPost, "/echo/abc", strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := decode(t, rec)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", data["Token"])
	assert.Equal(t, "123456", data["code"])
}

func TestWrap_EmptyBodySkipsJSONBinder(t *testing.T) {
	t.Parallel()

	var got echoRequest
	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		got = req
		return handler.Empty()
	}, handler.WithBinders[handler.Context, echoRequest](binder.Path(), binder.JSON()))

	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo/xyz", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "xyz", got.Token)
	assert.Empty(t, got.Code)
}

func TestWrap_BindErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{"malformed json", `{"code":`, "application/json", http.StatusBadRequest, "bad_request"},
		{"unknown field", `{"nope":1}`, "application/json", http.StatusBadRequest, "bad_request"},
		{"wrong media type", `code=1`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType, "unsupported_media_type"},
	}

	errHandler := handler.NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			called := false
			h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
				called = true
				return handler.Empty()
			},
				handler.WithBinders[handler.Context, echoRequest](binder.JSON()),
				handler.WithErrorHandler[handler.Context, echoRequest](errHandler),
			)

			req := httptest.NewRequest(http.MethodPost, "/echo/t", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestWrap_Decorators(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[handler.Context, echoRequest] {
		return func(next handler.HandlerFunc[handler.Context, echoRequest]) handler.HandlerFunc[handler.Context, echoRequest] {
			return func(ctx handler.Context, req echoRequest) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		order = append(order, "handler")
		return handler.Empty()
	}, handler.WithDecorators(mark("outer"), mark("inner")))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	var gotErr error
	h := handler.Wrap(func(ctx handler.Context, req echoRequest) handler.Response {
		return nil
	}, handler.WithErrorHandler[handler.Context, echoRequest](func(ctx handler.Context, err error) {
		gotErr = err
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, gotErr, handler.ErrNilResponse)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	validation := handler.NewValidationError()
	validation.Add("code", "must be 6 digits")

	tests := []struct {
		name        string
		err         error
		opts        []handler.JSONOption
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "http error",
			err:         handler.ErrLocked,
			wantStatus:  http.StatusLocked,
			wantCode:    "locked",
			wantMessage: "Locked",
		},
		{
			name:        "http error with message",
			err:         fmt.Errorf("wrapped: %w", handler.ErrUnauthorized.WithMessage("invalid code")),
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "unauthorized",
			wantMessage: "invalid code",
		},
		{
			name:        "validation error",
			err:         validation,
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "validation_error",
			wantMessage: "validation error: code: must be 6 digits",
		},
		{
			name:        "opaque error",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_server_error",
			wantMessage: "Internal Server Error",
		},
		{
			name:        "status override",
			err:         handler.ErrBadRequest,
			opts:        []handler.JSONOption{handler.WithJSONStatus(http.StatusTeapot)},
			wantStatus:  http.StatusTeapot,
			wantCode:    "bad_request",
			wantMessage: "Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err, tt.opts...).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMessage, body.Error.Message)
		})
	}
}

func TestJSON_MetaAndHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSON(map[string]int{"n": 1},
		handler.WithJSONStatus(http.StatusCreated),
		handler.WithJSONMeta(map[string]any{"a": 1}),
		handler.WithJSONMeta(map[string]any{"b": 2}),
		handler.WithJSONHeader("Retry-After", "60"),
	)
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte(`"meta":{"a":1,"b":2}`)))
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(contextWith(req, key{}, 42))
	ctx := handler.NewContext(httptest.NewRecorder(), req)

	assert.Equal(t, 42, handler.ContextValue[int](ctx, key{}))
	_, ok := handler.ContextValueOK[string](ctx, key{})
	assert.False(t, ok)
}
