package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics per
// route pattern. exporter may be nil.
func Middleware(collector *Collector, exporter *PrometheusExporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			// The route pattern is only known after routing, so read it
			// after the handler ran. Falls back to the raw path for
			// requests that matched no route.
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			key := r.Method + " " + route

			duration := time.Since(start).Seconds()
			collector.RecordRequest(key)
			collector.RecordDuration(key, duration)
			if exporter != nil {
				exporter.RecordRequest(key)
				exporter.RecordDuration(key, duration)
			}

			if rec.status >= http.StatusInternalServerError {
				collector.RecordError(key)
				if exporter != nil {
					exporter.RecordError(key)
				}
			}
		})
	}
}
