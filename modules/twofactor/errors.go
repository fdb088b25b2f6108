package twofactor

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/enrollhub/twofa/handler"
	svc "github.com/enrollhub/twofa/svc/twofactor"
)

var (
	errNotConfigured       = handler.NewHTTPError(http.StatusConflict, "two_factor_not_enabled")
	errAlreadyEnabled      = handler.NewHTTPError(http.StatusConflict, "two_factor_already_enabled")
	errInvalidCode         = handler.NewHTTPError(http.StatusUnauthorized, "invalid_code")
	errInvalidRecoveryCode = handler.NewHTTPError(http.StatusUnauthorized, "invalid_recovery_code")
	errLocked              = handler.NewHTTPError(http.StatusLocked, "two_factor_locked")
	errSessionInvalid      = handler.NewHTTPError(http.StatusUnauthorized, "session_invalid")
	errInvalidSetup        = handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_setup")
	errInvalidPrincipal    = handler.NewHTTPError(http.StatusBadRequest, "invalid_principal")
)

// errorResponse maps service errors to JSON responses. Unknown errors become
// an opaque 500; the service has already logged the detail.
func errorResponse(err error) handler.Response {
	var (
		locked  *svc.LockedError
		invalid *svc.InvalidCodeError
	)

	switch {
	case errors.As(err, &locked):
		retry := max(int((locked.Remaining+time.Second-1)/time.Second), 1)
		return handler.JSONError(errLocked.WithMessage(locked.Error()),
			handler.WithJSONMeta(map[string]any{"locked_until": locked.Until}),
			handler.WithJSONHeader("Retry-After", strconv.Itoa(retry)),
		)
	case errors.As(err, &invalid):
		return handler.JSONError(errInvalidCode.WithMessage("invalid verification code"),
			handler.WithJSONMeta(map[string]any{"remaining_attempts": invalid.RemainingAttempts}),
		)
	case errors.Is(err, svc.ErrInvalidCode):
		return handler.JSONError(errInvalidCode.WithMessage("invalid verification code"))
	case errors.Is(err, svc.ErrInvalidRecoveryCode):
		return handler.JSONError(errInvalidRecoveryCode.WithMessage("invalid recovery code"))
	case errors.Is(err, svc.ErrNotConfigured):
		return handler.JSONError(errNotConfigured.WithMessage("two-factor authentication is not enabled"))
	case errors.Is(err, svc.ErrAlreadyEnabled):
		return handler.JSONError(errAlreadyEnabled.WithMessage("two-factor authentication is already enabled"))
	case errors.Is(err, svc.ErrSessionInvalid):
		return handler.JSONError(errSessionInvalid.WithMessage("verification session is invalid or expired"))
	case errors.Is(err, svc.ErrInvalidSetup):
		return handler.JSONError(errInvalidSetup.WithMessage("setup payload is invalid"))
	case errors.Is(err, svc.ErrInvalidPrincipal), errors.Is(err, svc.ErrUnknownKind):
		return handler.JSONError(errInvalidPrincipal)
	case errors.Is(err, svc.ErrNotFound):
		return handler.JSONError(handler.ErrNotFound)
	}
	return handler.JSONError(handler.ErrInternalServerError)
}
