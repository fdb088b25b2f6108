package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/enrollhub/twofa/pkg/binder"
	"github.com/enrollhub/twofa/pkg/logger"
	"github.com/enrollhub/twofa/pkg/requestid"
)

// classifyError turns binder failures into client errors; everything else
// passes through unchanged for errorToDetail.
func classifyError(err error) error {
	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrUnsupportedMediaType
	case errors.Is(err, binder.ErrFailedToParseJSON), errors.Is(err, binder.ErrFailedToParsePath):
		return ErrBadRequest.WithMessage(err.Error())
	}
	return err
}

func logLevel(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// NewErrorHandler returns an ErrorHandler that logs the failure with the
// request id and renders a JSON error envelope.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		resp := JSONError(classifyError(err)).(*jsonResponse)

		log.LogAttrs(r.Context(), logLevel(resp.status), "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.Error("failed to render error response",
				logger.Error(renderErr),
				logger.Component("http"),
			)
		}
	}
}
