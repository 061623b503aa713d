package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyrics-resolver-go/logcolors"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists a Stats instance in its own BoltDB file
type Store struct {
	db       *bolt.DB
	dbPath   string
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedStats represents the stats data that gets persisted to disk
type PersistedStats struct {
	// Cumulative counters (these accumulate across restarts)
	TotalRequests     int64 `json:"total_requests"`
	LyricsRequests    int64 `json:"lyrics_requests"`
	StatsRequests     int64 `json:"stats_requests"`
	HealthRequests    int64 `json:"health_requests"`
	OtherRequests     int64 `json:"other_requests"`
	Resolved          int64 `json:"resolved"`
	NotFound          int64 `json:"not_found"`
	InvalidRequests   int64 `json:"invalid_requests"`
	ResolveErrors     int64 `json:"resolve_errors"`
	Instrumental      int64 `json:"instrumental"`
	BreakerTrips      int64 `json:"breaker_trips"`
	RateLimitAllowed  int64 `json:"rate_limit_allowed"`
	RateLimitExceeded int64 `json:"rate_limit_exceeded"`
	Status2xx         int64 `json:"status_2xx"`
	Status4xx         int64 `json:"status_4xx"`
	Status5xx         int64 `json:"status_5xx"`

	// Response time tracking
	TotalResponseTime   int64 `json:"total_response_time"`
	ResponseCount       int64 `json:"response_count"`
	MinResponseTime     int64 `json:"min_response_time"`
	MaxResponseTime     int64 `json:"max_response_time"`
	LyricsResponseTime  int64 `json:"lyrics_response_time"`
	LyricsResponseCount int64 `json:"lyrics_response_count"`

	// Resolutions by strategy
	ByStrategy map[string]int64 `json:"by_strategy"`

	// Metadata
	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// NewStore opens (or creates) the stats database at dbPath for s
func NewStore(dbPath string, s *Stats) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{
		db:       db,
		dbPath:   dbPath,
		stats:    s,
		stopChan: make(chan struct{}),
	}, nil
}

// Load reads persisted stats from disk and applies them to the store's Stats
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persisted PersistedStats
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}

		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil // No persisted stats yet
		}

		found = true
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if !found {
		return nil
	}

	st := s.stats
	st.TotalRequests.Store(persisted.TotalRequests)
	st.LyricsRequests.Store(persisted.LyricsRequests)
	st.StatsRequests.Store(persisted.StatsRequests)
	st.HealthRequests.Store(persisted.HealthRequests)
	st.OtherRequests.Store(persisted.OtherRequests)
	st.Resolved.Store(persisted.Resolved)
	st.NotFound.Store(persisted.NotFound)
	st.InvalidRequests.Store(persisted.InvalidRequests)
	st.ResolveErrors.Store(persisted.ResolveErrors)
	st.Instrumental.Store(persisted.Instrumental)
	st.BreakerTrips.Store(persisted.BreakerTrips)
	st.RateLimitAllowed.Store(persisted.RateLimitAllowed)
	st.RateLimitExceeded.Store(persisted.RateLimitExceeded)
	st.Status2xx.Store(persisted.Status2xx)
	st.Status4xx.Store(persisted.Status4xx)
	st.Status5xx.Store(persisted.Status5xx)
	st.totalResponseTime.Store(persisted.TotalResponseTime)
	st.responseCount.Store(persisted.ResponseCount)
	st.lyricsResponseTime.Store(persisted.LyricsResponseTime)
	st.lyricsResponseCount.Store(persisted.LyricsResponseCount)
	st.restoreStrategies(persisted.ByStrategy)

	// Only update min/max if we have valid persisted values
	if persisted.MinResponseTime > 0 && persisted.MinResponseTime < noResponseTime {
		st.minResponseTime.Store(persisted.MinResponseTime)
	}
	if persisted.MaxResponseTime > 0 {
		st.maxResponseTime.Store(persisted.MaxResponseTime)
	}

	// Preserve the original first start time if available
	if !persisted.FirstStarted.IsZero() {
		st.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d, first started: %s)",
		logcolors.LogStats, persisted.TotalRequests, persisted.FirstStarted.Format(time.RFC3339))

	return nil
}

// Save persists current stats to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	persisted := PersistedStats{
		TotalRequests:       st.TotalRequests.Load(),
		LyricsRequests:      st.LyricsRequests.Load(),
		StatsRequests:       st.StatsRequests.Load(),
		HealthRequests:      st.HealthRequests.Load(),
		OtherRequests:       st.OtherRequests.Load(),
		Resolved:            st.Resolved.Load(),
		NotFound:            st.NotFound.Load(),
		InvalidRequests:     st.InvalidRequests.Load(),
		ResolveErrors:       st.ResolveErrors.Load(),
		Instrumental:        st.Instrumental.Load(),
		BreakerTrips:        st.BreakerTrips.Load(),
		RateLimitAllowed:    st.RateLimitAllowed.Load(),
		RateLimitExceeded:   st.RateLimitExceeded.Load(),
		Status2xx:           st.Status2xx.Load(),
		Status4xx:           st.Status4xx.Load(),
		Status5xx:           st.Status5xx.Load(),
		TotalResponseTime:   st.totalResponseTime.Load(),
		ResponseCount:       st.responseCount.Load(),
		MinResponseTime:     st.minResponseTime.Load(),
		MaxResponseTime:     st.maxResponseTime.Load(),
		LyricsResponseTime:  st.lyricsResponseTime.Load(),
		LyricsResponseCount: st.lyricsResponseCount.Load(),
		ByStrategy:          st.StrategySnapshot(),
		LastSaved:           time.Now(),
		FirstStarted:        st.StartTime,
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	return nil
}

// StartAutoSave begins periodic saving of stats
func (s *Store) StartAutoSave(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close saves stats and closes the database
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	// Final save before closing
	if err := s.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}

	return s.db.Close()
}
