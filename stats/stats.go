package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Resolution outcomes recorded by RecordResolution. Strategy names are
// recorded as-is.
const (
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests  atomic.Int64
	LyricsRequests atomic.Int64
	StatsRequests  atomic.Int64
	HealthRequests atomic.Int64
	OtherRequests  atomic.Int64

	// Resolution outcomes
	Resolved        atomic.Int64
	NotFound        atomic.Int64
	InvalidRequests atomic.Int64
	ResolveErrors   atomic.Int64
	Instrumental    atomic.Int64
	byStrategy      sync.Map // strategy name -> *atomic.Int64

	// Upstream health
	BreakerTrips atomic.Int64

	// Rate limiting
	RateLimitAllowed  atomic.Int64
	RateLimitExceeded atomic.Int64 // Requests rejected (429)

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	// Endpoint response times (microseconds)
	lyricsResponseTime  atomic.Int64
	lyricsResponseCount atomic.Int64
}

const noResponseTime = int64(^uint64(0) >> 1) // Max int64

// New returns an empty Stats started now.
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(noResponseTime)
	return s
}

// Global stats instance
var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// IsLyricsEndpoint reports whether path serves lyric lookups.
func IsLyricsEndpoint(path string) bool {
	return path == "/api/get" || path == "/getLyrics"
}

// RecordRequest records a request to a specific endpoint
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch {
	case IsLyricsEndpoint(endpoint):
		s.LyricsRequests.Add(1)
	case endpoint == "/stats":
		s.StatsRequests.Add(1)
	case endpoint == "/health":
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordResolution records the outcome of one lyric lookup. outcome is either
// the name of the strategy that found the song or one of the Outcome constants.
func (s *Stats) RecordResolution(outcome string) {
	switch outcome {
	case OutcomeNotFound:
		s.NotFound.Add(1)
	case OutcomeInvalid:
		s.InvalidRequests.Add(1)
	case OutcomeError:
		s.ResolveErrors.Add(1)
	default:
		s.Resolved.Add(1)
		counter, _ := s.byStrategy.LoadOrStore(outcome, &atomic.Int64{})
		counter.(*atomic.Int64).Add(1)
	}
}

// RecordInstrumental records a resolved song without lyrics
func (s *Stats) RecordInstrumental() {
	s.Instrumental.Add(1)
}

// RecordBreakerTrip records the catalog circuit breaker opening
func (s *Stats) RecordBreakerTrip() {
	s.BreakerTrips.Add(1)
}

// RecordRateLimit records whether a request passed the rate limiter
func (s *Stats) RecordRateLimit(allowed bool) {
	if allowed {
		s.RateLimitAllowed.Add(1)
	} else {
		s.RateLimitExceeded.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, endpoint string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	// Update min/max atomically
	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if IsLyricsEndpoint(endpoint) {
		s.lyricsResponseTime.Add(us)
		s.lyricsResponseCount.Add(1)
	}
}

// StrategySnapshot returns resolution counts keyed by strategy name
func (s *Stats) StrategySnapshot() map[string]int64 {
	out := make(map[string]int64)
	s.byStrategy.Range(func(key, value interface{}) bool {
		out[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return out
}

func (s *Stats) restoreStrategies(counts map[string]int64) {
	for name, count := range counts {
		counter := &atomic.Int64{}
		counter.Store(count)
		s.byStrategy.Store(name, counter)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// SuccessRate returns the share of valid lyric lookups that found a song, as a percentage
func (s *Stats) SuccessRate() float64 {
	resolved := s.Resolved.Load()
	total := resolved + s.NotFound.Load() + s.ResolveErrors.Load()
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == noResponseTime {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgLyricsResponseTime returns the average response time for lyrics requests
func (s *Stats) AvgLyricsResponseTime() time.Duration {
	count := s.lyricsResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.lyricsResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":  s.TotalRequests.Load(),
			"lyrics": s.LyricsRequests.Load(),
			"stats":  s.StatsRequests.Load(),
			"health": s.HealthRequests.Load(),
			"other":  s.OtherRequests.Load(),
		},
		"resolution": map[string]interface{}{
			"resolved":     s.Resolved.Load(),
			"not_found":    s.NotFound.Load(),
			"invalid":      s.InvalidRequests.Load(),
			"errors":       s.ResolveErrors.Load(),
			"instrumental": s.Instrumental.Load(),
			"by_strategy":  s.StrategySnapshot(),
			"success_rate": s.SuccessRate(),
		},
		"upstream": map[string]interface{}{
			"breaker_trips": s.BreakerTrips.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"allowed":  s.RateLimitAllowed.Load(),
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":        s.AvgResponseTime().String(),
			"min":        s.MinResponseTime().String(),
			"max":        s.MaxResponseTime().String(),
			"avg_lyrics": s.AvgLyricsResponseTime().String(),
		},
	}
}
