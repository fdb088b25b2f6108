package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/enrollhub/twofa/pkg/logger"
)

// Check is a named dependency probe such as pg.Healthcheck(pool).
type Check struct {
	Name  string
	Probe func(context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always answers 200.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthReport{Status: "alive"})
	}
}

// ReadinessHandler runs every check concurrently, each bounded by timeout,
// and answers 503 if any of them fails.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			mu     sync.Mutex
			report = healthReport{Status: "ready", Checks: make(map[string]string, len(checks))}
			failed bool
			g      errgroup.Group
		)

		for _, c := range checks {
			g.Go(func() error {
				ctx := r.Context()
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}

				err := c.Probe(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = true
					report.Checks[c.Name] = "unavailable"
					log.WarnContext(r.Context(), "readiness check failed",
						slog.String("check", c.Name),
						logger.Error(err),
						logger.Component("http"))
					return nil
				}
				report.Checks[c.Name] = "ok"
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		if failed {
			status = http.StatusServiceUnavailable
			report.Status = "not_ready"
		}
		writeHealth(w, status, report)
	}
}

func writeHealth(w http.ResponseWriter, status int, report healthReport) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
