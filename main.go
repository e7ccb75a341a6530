package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nanolookc/transport-map/internal/analytics"
	"github.com/nanolookc/transport-map/internal/api"
	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/config"
	"github.com/nanolookc/transport-map/internal/detector"
	"github.com/nanolookc/transport-map/internal/metrics"
	"github.com/nanolookc/transport-map/internal/provider"
	"github.com/nanolookc/transport-map/internal/scheduler"
	"github.com/nanolookc/transport-map/internal/store"
	"github.com/nanolookc/transport-map/internal/updater"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dataStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer dataStore.Close()

	engine := cache.NewEngine()
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderAgency)
	collector := metrics.NewCollector()

	det := detector.New(engine, cfg.EntryRadiusM, cfg.ExitRadiusM)
	staticUpdater := updater.NewStaticUpdater(providerClient, dataStore, engine, collector)
	vehicleUpdater := updater.NewVehicleUpdater(providerClient, dataStore, engine, det, collector, cfg.Location)
	sweeper := updater.NewRetentionSweeper(dataStore, collector, time.Duration(cfg.RetentionDays)*24*time.Hour)

	// Initial reference load; without it the detector has nothing to
	// match against.
	if err := staticUpdater.Update(ctx); err != nil {
		log.Fatalf("Failed to load initial reference data: %v", err)
	}

	analyticsEngine := analytics.New(dataStore, engine, cfg.Location)
	apiServer := api.NewServer(engine, providerClient, analyticsEngine, collector.Handler())
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer.Router(),
	}

	loops := []*scheduler.Loop{
		{
			Name: "poll",
			Run:  vehicleUpdater.Update,
			Next: scheduler.DayNightInterval(cfg.PollDayInterval, cfg.PollNightInterval,
				cfg.DayWindowStart, cfg.DayWindowEnd, cfg.Location),
		},
		{
			Name:      "static refresh",
			Run:       staticUpdater.Update,
			Next:      scheduler.FixedInterval(cfg.StaticRefreshInterval),
			SkipFirst: true, // initial refresh ran above
		},
		{
			Name: "retention sweep",
			Run:  sweeper.Sweep,
			Next: scheduler.FixedInterval(cfg.RetentionSweepInterval),
		},
	}

	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(l *scheduler.Loop) {
			defer wg.Done()
			l.Start(ctx)
		}(loop)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	wg.Wait()
	log.Println("Server exited properly")
}
