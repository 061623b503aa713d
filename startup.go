package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/middleware"
	"lyrics-resolver-go/stats"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// publicPaths skip the API key check
var publicPaths = []string{"/", "/health"}

// newCatalogBreaker creates the breaker shared by every catalog call and
// counts each time it trips open.
func newCatalogBreaker(conf config.Config, st *stats.Stats) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		Name:      "Catalog",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  conf.CircuitBreakerCooldown(),
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				st.RecordBreakerTrip()
				log.Warnf("%s %s -> %s", logcolors.CircuitBreakerPrefix(name), from, to)
			}
		},
	})
}

// newHandler wires the router behind the middleware chain:
// logging, stats, CORS, rate limiting, then API key.
func newHandler(conf config.Config, s *server) http.Handler {
	router := mux.NewRouter()
	s.setupRoutes(router)

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
	)

	c := cors.New(cors.Options{
		AllowedOrigins:       splitOrigins(conf.Configuration.CORSAllowedOrigins),
		AllowedMethods:       []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", middleware.APIKeyHeader},
		ExposedHeaders:       []string{"X-Resolution-Strategy", "X-RateLimit-Limit", "X-RateLimit-Remaining", middleware.RequestIDHeader},
		OptionsSuccessStatus: http.StatusOK,
	})

	var handler http.Handler = router
	handler = middleware.APIKeyMiddleware(conf.Configuration.APIKey, conf.Configuration.APIKeyRequired, publicPaths)(handler)
	handler = limitMiddleware(handler, limiter, conf.Configuration.APIKey, s.stats)
	handler = c.Handler(handler)
	handler = statsMiddleware(handler, s.stats)
	return middleware.LoggingMiddleware(handler)
}

func splitOrigins(origins string) []string {
	var out []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func statsMiddleware(next http.Handler, st *stats.Stats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewResponseRecorder(w)
		next.ServeHTTP(rec, r)

		st.RecordRequest(r.URL.Path)
		st.RecordStatusCode(rec.StatusCode)
		st.RecordResponseTime(time.Since(start), r.URL.Path)
	})
}

func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter, apiKey string, st *stats.Stats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A valid API key bypasses rate limits
		if provided := r.Header.Get(middleware.APIKeyHeader); provided != "" && apiKey != "" && provided == apiKey {
			w.Header().Set("X-RateLimit-Bypass", "true")
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, "bypass")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ip := middleware.ClientIP(r.RemoteAddr)
		l := limiter.GetLimiter(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

		if l.Allow() {
			st.RecordRateLimit(true)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(middleware.Remaining(l)))
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, "normal")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		st.RecordRateLimit(false)
		log.Warnf("%s IP %s exceeded rate limit", logcolors.LogRateLimit, ip)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "1")
		Respond(w, r).Error(http.StatusTooManyRequests, ErrorResponse{Error: http.StatusText(http.StatusTooManyRequests)})
	})
}
