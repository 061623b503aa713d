package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port     string `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

		RateLimitPerSecond  int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		APIKey              string `envconfig:"API_KEY" default:""`
		APIKeyRequired      bool   `envconfig:"API_KEY_REQUIRED" default:"false"`
		CORSAllowedOrigins  string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

		StatsAccessToken      string `envconfig:"STATS_ACCESS_TOKEN" default:""`
		StatsDBPath           string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		StatsSaveIntervalSecs int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`

		// Catalog endpoints
		CatalogSearchURL      string `envconfig:"CATALOG_SEARCH_URL" default:"https://u.y.qq.com/cgi-bin/musicu.fcg"`
		CatalogSongInfoURL    string `envconfig:"CATALOG_SONG_INFO_URL" default:"https://c.y.qq.com/v8/fcg-bin/fcg_play_single_song.fcg"`
		CatalogLyricURL       string `envconfig:"CATALOG_LYRIC_URL" default:"https://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg"`
		CatalogTimedLyricURL  string `envconfig:"CATALOG_TIMED_LYRIC_URL" default:"https://c.y.qq.com/qqmusic/fcgi-bin/lyric_download.fcg"`
		CatalogReferer        string `envconfig:"CATALOG_REFERER" default:"https://c.y.qq.com/"`
		CatalogTimeoutSecs    int    `envconfig:"CATALOG_TIMEOUT_SECS" default:"10"`
		TimedLyricTimeoutSecs int    `envconfig:"TIMED_LYRIC_TIMEOUT_SECS" default:"10"`

		// Resolution
		SearchResultLimit     int    `envconfig:"SEARCH_RESULT_LIMIT" default:"3"`
		SearchStrategyDelayMs int    `envconfig:"SEARCH_STRATEGY_DELAY_MS" default:"200"`
		SongMappingFile       string `envconfig:"SONG_MAPPING_FILE" default:""`

		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`      // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"60"` // Seconds to wait before probing again
	}

	FeatureFlags struct {
		ConcurrentSearch bool `envconfig:"FF_CONCURRENT_SEARCH" default:"false"`
		PersistStats     bool `envconfig:"FF_PERSIST_STATS" default:"true"`
	}
}

// CatalogTimeout returns the per-request timeout of catalog calls.
func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Configuration.CatalogTimeoutSecs) * time.Second
}

// TimedLyricTimeout returns the timeout of the word-timed lyric download.
func (c Config) TimedLyricTimeout() time.Duration {
	return time.Duration(c.Configuration.TimedLyricTimeoutSecs) * time.Second
}

// StrategyDelay returns the pause between simplified search strategies.
func (c Config) StrategyDelay() time.Duration {
	return time.Duration(c.Configuration.SearchStrategyDelayMs) * time.Millisecond
}

// CircuitBreakerCooldown returns how long the catalog breaker stays open.
func (c Config) CircuitBreakerCooldown() time.Duration {
	return time.Duration(c.Configuration.CircuitBreakerCooldownSecs) * time.Second
}

// StatsSaveInterval returns how often stats are flushed to disk.
func (c Config) StatsSaveInterval() time.Duration {
	return time.Duration(c.Configuration.StatsSaveIntervalSecs) * time.Second
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
