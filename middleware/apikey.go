package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware requires a valid X-API-Key header when required is true.
// A required middleware without a configured key logs a warning and lets
// every request through. Paths in publicPaths skip the check; an entry ending
// in "*" matches by prefix.
func APIKeyMiddleware(apiKey string, required bool, publicPaths []string) func(http.Handler) http.Handler {
	exact := make(map[string]bool)
	var prefixes []string
	for _, path := range publicPaths {
		if strings.HasSuffix(path, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(path, "*"))
			continue
		}
		exact[path] = true
	}

	isPublic := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		if apiKey == "" {
			log.Warnf("%s API key required but not configured, allowing all requests", logcolors.LogAPIKey)
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if r.Method == http.MethodOptions || isPublic(path) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(APIKeyHeader)
			if providedKey == "" {
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				writeUnauthorized(w, "API key required", "Provide a valid API key via X-API-Key header")
				return
			}

			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, r.RemoteAddr, path)
				writeUnauthorized(w, "Invalid API key", "The provided API key is not valid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + errMsg + `","message":"` + message + `"}`))
}
