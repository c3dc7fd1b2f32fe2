package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"photocapture/internal/logger"
)

// RequestLogging logs each request with its status and duration.
func RequestLogging(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start).Truncate(time.Millisecond)
			if rec.status >= http.StatusInternalServerError {
				logger.Warning("%s %s -> %d (%s) from %s", r.Method, r.URL.RequestURI(), rec.status, elapsed, r.RemoteAddr)
				return
			}
			logger.Info("%s %s -> %d (%s) from %s", r.Method, r.URL.RequestURI(), rec.status, elapsed, r.RemoteAddr)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
