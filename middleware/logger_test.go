package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lyrics-resolver-go/logcolors"
)

func TestGetStatusColor(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, logcolors.Green},
		{http.StatusNoContent, logcolors.Green},
		{http.StatusMovedPermanently, logcolors.Cyan},
		{http.StatusBadRequest, logcolors.Yellow},
		{http.StatusNotFound, logcolors.Yellow},
		{http.StatusTooManyRequests, logcolors.Yellow},
		{http.StatusInternalServerError, logcolors.Red},
		{http.StatusBadGateway, logcolors.Red},
		{http.StatusContinue, logcolors.Reset},
	}

	for _, tt := range tests {
		if got := getStatusColor(tt.status); got != tt.want {
			t.Errorf("getStatusColor(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestResponseRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewResponseRecorder(w)

	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected default status %d, got %d", http.StatusOK, rec.StatusCode)
	}

	rec.WriteHeader(http.StatusNotFound)
	rec.Write([]byte(`{"error":`))
	rec.Write([]byte(`"Song not found"}`))

	if rec.StatusCode != http.StatusNotFound {
		t.Errorf("Expected recorded status %d, got %d", http.StatusNotFound, rec.StatusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected forwarded status %d, got %d", http.StatusNotFound, w.Code)
	}
	if rec.BodySize != len(`{"error":"Song not found"}`) {
		t.Errorf("Unexpected body size %d", rec.BodySize)
	}
	if w.Body.String() != `{"error":"Song not found"}` {
		t.Errorf("Unexpected forwarded body %q", w.Body.String())
	}
}

func TestResponseRecorder_WriteWithoutHeader(t *testing.T) {
	rec := NewResponseRecorder(httptest.NewRecorder())
	rec.Write([]byte("ok"))

	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.StatusCode)
	}
	if rec.BodySize != 2 {
		t.Errorf("Expected body size 2, got %d", rec.BodySize)
	}
}

func TestLoggingMiddleware_PassesResponseThrough(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("body"))
		})

		rec := httptest.NewRecorder()
		LoggingMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/api/get", nil))

		if rec.Code != status {
			t.Errorf("Expected status %d, got %d", status, rec.Code)
		}
		if rec.Body.String() != "body" {
			t.Errorf("Expected body to pass through, got %q", rec.Body.String())
		}
	}
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	LoggingMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	if seen == "" {
		t.Fatal("Expected a generated request ID in the handler context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("Expected response header %q, got %q", seen, got)
	}
}

func TestLoggingMiddleware_KeepsClientRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	rec := httptest.NewRecorder()
	LoggingMiddleware(handler).ServeHTTP(rec, req)

	if seen != "client-id-1" {
		t.Errorf("Expected client request ID, got %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "client-id-1" {
		t.Errorf("Expected echoed request ID, got %q", got)
	}
}

func TestRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if id := RequestID(req.Context()); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
}
