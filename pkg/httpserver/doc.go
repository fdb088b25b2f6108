// Package httpserver runs an http.Handler with configured timeouts and
// graceful shutdown, and builds liveness and readiness probe handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns when ctx is cancelled or the process receives SIGINT/SIGTERM.
// Failures are wrapped with ErrStart and ErrShutdown.
package httpserver
