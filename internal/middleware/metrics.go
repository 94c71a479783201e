package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/joinagame/internal/metrics"
)

// Metrics records request count and latency per route pattern. Requests
// that matched no route are recorded under "unmatched" so scanners hitting
// random paths can't blow up label cardinality.
func Metrics(rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			rec.ObserveHTTP(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
