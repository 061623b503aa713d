package main

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIResponse handles consistent header setting and JSON responses.
// It centralizes the logic for setting X-Resolution-Strategy,
// X-RateLimit-Type, and other standard headers based on request context.
type APIResponse struct {
	w        http.ResponseWriter
	r        *http.Request
	strategy string
	mapped   bool
}

// Respond creates a response helper from request context
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetStrategy sets the X-Resolution-Strategy header value
func (a *APIResponse) SetStrategy(strategy string) *APIResponse {
	a.strategy = strategy
	return a
}

// SetMapped marks a response served from the static mapping table
func (a *APIResponse) SetMapped(mapped bool) *APIResponse {
	a.mapped = mapped
	return a
}

// writeHeaders sets all standard headers based on context
func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.strategy != "" {
		a.w.Header().Set("X-Resolution-Strategy", a.strategy)
	}
	if a.mapped {
		a.w.Header().Set("X-Mapped", "true")
	}

	// Rate limit type from context
	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		a.w.Header().Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes error response
func (a *APIResponse) Error(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}
