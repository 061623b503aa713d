package middleware

import (
	"context"
	"net/http"
	"time"

	"lyrics-resolver-go/logcolors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// ResponseRecorder wraps http.ResponseWriter to capture status code and body size
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder that defaults to 200 OK
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

// WriteHeader records the status code and forwards it
func (r *ResponseRecorder) WriteHeader(statusCode int) {
	r.StatusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Write records the number of body bytes written
func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

// RequestID returns the request ID stored by LoggingMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func getStatusColor(status int) string {
	switch {
	case status >= 500:
		return logcolors.Red
	case status >= 400:
		return logcolors.Yellow
	case status >= 300:
		return logcolors.Cyan
	case status >= 200:
		return logcolors.Green
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs every request with its status, size, duration and
// request ID. A client-supplied X-Request-ID is kept, otherwise one is generated.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)

		rec := NewResponseRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.StatusCode,
			"size":       rec.BodySize,
			"duration":   duration.String(),
			"remote":     r.RemoteAddr,
		}).Infof("%s %s %s %s%d%s %dB in %v",
			logcolors.LogHTTP, r.Method, r.URL.Path,
			getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset,
			rec.BodySize, duration)
	})
}
