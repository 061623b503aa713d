package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/mapping"
	"lyrics-resolver-go/services/resolver"
	"lyrics-resolver-go/stats"

	log "github.com/sirupsen/logrus"
)

// server holds the dependencies of the HTTP handlers
type server struct {
	resolver     *resolver.Resolver
	breaker      *circuitbreaker.CircuitBreaker
	mappings     *mapping.Table
	stats        *stats.Stats
	accessToken  string
	cooldownSecs int
}

func firstParam(r *http.Request, names []string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// authorized reports whether r carries the operator access token.
// With no token configured the operator endpoints stay closed.
func (s *server) authorized(r *http.Request) bool {
	return s.accessToken != "" && r.Header.Get("Authorization") == s.accessToken
}

func (s *server) getLyrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
	default:
		Respond(w, r).Error(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	trackName := firstParam(r, trackNameParams)
	artistName := firstParam(r, artistNameParams)

	q, err := resolver.NewQuery(trackName, artistName)
	if err != nil {
		s.stats.RecordResolution(stats.OutcomeInvalid)
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error:   "Missing parameters",
			Message: "trackName/track_name and artistName/artist_name are both required",
		})
		return
	}

	var result *resolver.Result
	if catalogID := firstParam(r, catalogIDParams); catalogID != "" {
		result, err = s.resolver.ResolveCatalogID(r.Context(), catalogID, q)
	} else {
		result, err = s.resolver.Resolve(r.Context(), q)
	}
	if err != nil {
		s.writeResolveError(w, r, err)
		return
	}

	s.stats.RecordResolution(string(result.Strategy))
	if result.Instrumental {
		s.stats.RecordInstrumental()
	}

	Respond(w, r).
		SetStrategy(string(result.Strategy)).
		SetMapped(result.IsMapped).
		JSON(result)
}

func (s *server) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolver.ErrInvalidRequest):
		s.stats.RecordResolution(stats.OutcomeInvalid)
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
	case errors.Is(err, resolver.ErrNotFound):
		s.stats.RecordResolution(stats.OutcomeNotFound)
		Respond(w, r).Error(http.StatusNotFound, ErrorResponse{Error: "Song not found", Message: err.Error()})
	default:
		s.stats.RecordResolution(stats.OutcomeError)
		log.Errorf("%s %v", logcolors.LogWarning, err)
		Respond(w, r).Error(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Message: err.Error()})
	}
}

func (s *server) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:         "ok",
		Uptime:         s.stats.Uptime().Round(time.Second).String(),
		CircuitBreaker: s.breaker.State().String(),
		Mappings:       s.mappings.Len(),
	}

	// An open breaker means every catalog call is being rejected
	if s.breaker.State() == circuitbreaker.StateOpen {
		health.Status = "degraded"
		health.CircuitBreakerRetryIn = s.breaker.TimeUntilRetry().String()
	}

	Respond(w, r).JSON(health)
}

func (s *server) getStats(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := s.stats.Snapshot()
	snapshot["circuit_breaker"] = breakerStatus(s.breaker, s.cooldownSecs)
	snapshot["mappings"] = s.mappings.Len()

	Respond(w, r).JSON(snapshot)
}

func (s *server) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	Respond(w, r).JSON(breakerStatus(s.breaker, s.cooldownSecs))
}

func (s *server) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.breaker.Reset()

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"help": "Use /api/get to resolve a song and fetch its lyrics. Provide trackName and artistName as query parameters. Example: /api/get?trackName=Shape%20of%20You&artistName=Ed%20Sheeran",
		"endpoints": map[string]string{
			"/api/get":               "Resolve a song and return synced, translated and word-timed lyrics (alias: /getLyrics)",
			"/health":                "Service health and circuit breaker state",
			"/stats":                 "Request and resolution counters (requires Authorization)",
			"/circuit-breaker":       "Catalog circuit breaker status (requires Authorization)",
			"/circuit-breaker/reset": "Close the catalog circuit breaker (requires Authorization)",
		},
		"parameters": map[string]string{
			"trackName":  "Song title (alias: track_name)",
			"artistName": "Artist names, separated by ',' or '&' (alias: artist_name)",
			"mid":        "Optional catalog id; skips search",
		},
	})
}
