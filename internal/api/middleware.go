package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withObservability wraps the mux with request logging and, when metrics
// are configured, per-route counters and latency histograms.
func (h *Handler) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics != nil {
			h.metrics.RequestsInFlight.Inc()
			defer h.metrics.RequestsInFlight.Dec()
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		if h.metrics != nil {
			h.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
			h.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}

		h.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", elapsed,
		)
	})
}

// corsHandler allows the mobile app to reach the API from any origin.
func corsHandler(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(next)
}

// HTTPHandler returns the routes wrapped with CORS and observability.
func (h *Handler) HTTPHandler() http.Handler {
	return corsHandler(h.withObservability(h.Routes()))
}
