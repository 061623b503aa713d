package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/catalog/qqmusic"
	"lyrics-resolver-go/services/mapping"
	"lyrics-resolver-go/services/resolver"
	"lyrics-resolver-go/stats"

	log "github.com/sirupsen/logrus"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Configuration.LogLevel)
	if err != nil {
		log.Warnf("%s Invalid LOG_LEVEL %q, using info", logcolors.LogConfig, conf.Configuration.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	st := stats.Get()

	var store *stats.Store
	if conf.FeatureFlags.PersistStats {
		var err error
		store, err = stats.NewStore(conf.Configuration.StatsDBPath, st)
		if err != nil {
			log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
		} else {
			if err := store.Load(); err != nil {
				log.Warnf("%s %v", logcolors.LogStats, err)
			}
			store.StartAutoSave(conf.StatsSaveInterval())
		}
	}

	mappings, err := mapping.Load(conf.Configuration.SongMappingFile)
	if err != nil {
		log.Fatalf("%s %v", logcolors.LogMapping, err)
	}

	breaker := newCatalogBreaker(conf, st)
	client := qqmusic.NewFromConfig(conf, breaker)

	s := &server{
		resolver: resolver.New(client,
			resolver.WithMappings(mappings),
			resolver.WithStrategyDelay(conf.StrategyDelay()),
			resolver.WithConcurrentSearch(conf.FeatureFlags.ConcurrentSearch),
		),
		breaker:      breaker,
		mappings:     mappings,
		stats:        st,
		accessToken:  conf.Configuration.StatsAccessToken,
		cooldownSecs: conf.Configuration.CircuitBreakerCooldownSecs,
	}

	httpServer := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           newHandler(conf, s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("%s Listening on port %s (catalog: %s, %d mapping(s))",
			logcolors.LogServer, conf.Configuration.Port, client.Name(), mappings.Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s %v", logcolors.LogServer, err)
		}
	}()

	<-ctx.Done()
	log.Infof("%s Shutting down", logcolors.LogServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
	}

	if store != nil {
		if err := store.Close(); err != nil {
			log.Warnf("%s %v", logcolors.LogStats, err)
		}
	}
}
