package httpserver

import "errors"

var (
	// ErrStart wraps listen and serve failures.
	ErrStart = errors.New("httpserver: start failed")
	// ErrShutdown wraps failures to drain connections before the deadline.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
