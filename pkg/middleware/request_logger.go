package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type HTTPRequestLogger struct {
	logger             *logrus.Logger
	debug              bool
	errorOnStatusAbove int
}

func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, errorOnStatusAbove int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:             logger,
		debug:              debug,
		errorOnStatusAbove: errorOnStatusAbove,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"statusCode": rec.statusCode,
			"elapsedMs":  time.Since(start).Milliseconds(),
		})

		switch {
		case rec.statusCode >= l.errorOnStatusAbove:
			entry.Error()
		case l.debug:
			entry.Info()
		}
	})
}
