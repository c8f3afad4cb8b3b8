package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Paul-Pranta/bookspp/internal/logger"
	"github.com/Paul-Pranta/bookspp/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func record(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// RequestID tags each request context with an id, echoed as X-Request-ID
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithID(r.Context(), id)))
	})
}

// RequestLogger logs each request at the INFO level
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)

		next.ServeHTTP(rec, r)

		logger.For(r.Context()).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
			"took":   time.Since(start),
		}).Info("http.request")
	})
}

// Metrics records request counts and durations. It must wrap the mux
// directly so the matched route pattern is visible once the handler returns.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)

		next.ServeHTTP(rec, r)

		route := routeLabel(r.Pattern)
		metrics.HttpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel strips the method from a mux pattern; unmatched requests share
// a single "other" series.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "other"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
