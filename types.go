package main

import (
	"lyrics-resolver-go/circuitbreaker"
)

type contextKey string

const rateLimitTypeKey contextKey = "rateLimitType"

// lyricsParams are the accepted query parameters of the lyrics endpoints,
// in lookup order.
var (
	trackNameParams  = []string{"trackName", "track_name"}
	artistNameParams = []string{"artistName", "artist_name"}
	catalogIDParams  = []string{"mid", "catalogId"}
)

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response format for /health
type HealthResponse struct {
	Status                string `json:"status"`
	Uptime                string `json:"uptime"`
	CircuitBreaker        string `json:"circuit_breaker"`
	CircuitBreakerRetryIn string `json:"circuit_breaker_retry_in,omitempty"`
	Mappings              int    `json:"mappings"`
}

// CircuitBreakerStatus is the response format for /circuit-breaker
type CircuitBreakerStatus struct {
	Name           string               `json:"name"`
	State          string               `json:"state"`
	Failures       int                  `json:"failures"`
	TimeUntilRetry string               `json:"time_until_retry"`
	Config         CircuitBreakerConfig `json:"config"`
}

// CircuitBreakerConfig echoes the breaker settings
type CircuitBreakerConfig struct {
	Threshold   int `json:"threshold"`
	CooldownSec int `json:"cooldown_sec"`
}

func breakerStatus(cb *circuitbreaker.CircuitBreaker, cooldownSecs int) CircuitBreakerStatus {
	state, failures, _ := cb.Stats()
	return CircuitBreakerStatus{
		Name:           cb.Name(),
		State:          state.String(),
		Failures:       failures,
		TimeUntilRetry: cb.TimeUntilRetry().String(),
		Config: CircuitBreakerConfig{
			Threshold:   cb.Threshold(),
			CooldownSec: cooldownSecs,
		},
	}
}
