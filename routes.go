package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func (s *server) setupRoutes(router *mux.Router) {
	// Lyrics lookup; /getLyrics is kept for older clients
	router.HandleFunc("/api/get", s.getLyrics)
	router.HandleFunc("/getLyrics", s.getLyrics)

	// Health and stats endpoints
	router.HandleFunc("/health", s.getHealthStatus)
	router.HandleFunc("/stats", s.getStats)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", s.getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", s.resetCircuitBreaker)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
