package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const defaultMaxLogBodyBytes = 512

// statusRecorder captures the status code and a bounded copy of the response
// body for the access log.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	logBody      bytes.Buffer
	bytesWritten int
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

// accessLog logs every request and feeds the request metrics. Error
// responses carry a preview of their body.
func (a *API) accessLog(maxLogBytes int) func(http.Handler) http.Handler {
	if maxLogBytes <= 0 {
		maxLogBytes = defaultMaxLogBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			if requestID := middleware.GetReqID(r.Context()); requestID != "" {
				w.Header().Set(middleware.RequestIDHeader, requestID)
			}
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK, maxLogBytes: maxLogBytes}

			if a.metrics != nil {
				a.metrics.RequestsInFlight.Inc()
				defer a.metrics.RequestsInFlight.Dec()
			}

			next.ServeHTTP(recorder, r)

			elapsed := time.Since(started)
			route := routePattern(r)
			if a.metrics != nil {
				a.metrics.ObserveRequest(r.Method, route, recorder.statusCode, elapsed)
			}

			entry := a.log.WithRequestID(middleware.GetReqID(r.Context())).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      recorder.statusCode,
				"bytes":       recorder.bytesWritten,
				"duration_ms": elapsed.Milliseconds(),
			})
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				entry.WithFields(logrus.Fields{
					"body":      recorder.logBody.String(),
					"truncated": recorder.truncated,
				}).Error("request failed")
			case recorder.statusCode >= http.StatusBadRequest:
				entry.WithFields(logrus.Fields{
					"body":      recorder.logBody.String(),
					"truncated": recorder.truncated,
				}).Warn("request rejected")
			default:
				entry.Info("request handled")
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
