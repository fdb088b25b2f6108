// Package logger builds slog loggers with consistent formatting and a small
// set of attribute helpers.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "twofactord"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.ErrorContext(ctx, "verify code", logger.Principal("user", id), logger.Error(err))
//
// Error and RequestID return an empty attribute for zero input, which slog
// drops, so callers do not need nil checks.
package logger
