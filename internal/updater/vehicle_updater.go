// Package updater implements the three ingestion cycles: the vehicle poll
// cycle, the static reference refresh and the retention sweep.
package updater

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/detector"
	"github.com/nanolookc/transport-map/internal/filter"
	"github.com/nanolookc/transport-map/internal/metrics"
	"github.com/nanolookc/transport-map/internal/models"
	"github.com/nanolookc/transport-map/internal/provider"
	"github.com/nanolookc/transport-map/internal/store"
)

// VehicleUpdater runs one fetch-detect-persist cycle per invocation.
type VehicleUpdater struct {
	provider *provider.Client
	store    *store.Store
	engine   *cache.Engine
	detector *detector.Detector
	metrics  *metrics.Collector
	loc      *time.Location
}

// NewVehicleUpdater creates a poll-cycle updater.
func NewVehicleUpdater(p *provider.Client, st *store.Store, eng *cache.Engine, det *detector.Detector, m *metrics.Collector, loc *time.Location) *VehicleUpdater {
	return &VehicleUpdater{
		provider: p,
		store:    st,
		engine:   eng,
		detector: det,
		metrics:  m,
		loc:      loc,
	}
}

// Update fetches live positions, runs visit detection and persists the
// cycle's snapshots, visits and daily route stats. A fetch failure aborts
// before anything is written.
func (u *VehicleUpdater) Update(ctx context.Context) error {
	start := time.Now()
	u.metrics.PollCycles.Inc()

	fetchedAt := time.Now()
	vehicles, err := u.provider.Vehicles(ctx)
	if err != nil {
		u.metrics.PollFailures.Inc()
		return fmt.Errorf("failed to fetch vehicle positions: %w", err)
	}

	visits := u.detector.Detect(vehicles, fetchedAt)

	// The proxy cache reflects the last successful poll regardless of
	// whether persistence below succeeds.
	u.engine.SetVehicles(vehicles, fetchedAt)
	u.metrics.VehiclesSeen.Set(float64(len(vehicles)))

	if err := u.store.InsertSnapshots(ctx, snapshots(vehicles, fetchedAt)); err != nil {
		u.metrics.PollFailures.Inc()
		return fmt.Errorf("failed to persist snapshots: %w", err)
	}
	if err := u.store.InsertVisits(ctx, visits); err != nil {
		u.metrics.PollFailures.Inc()
		return fmt.Errorf("failed to persist stop visits: %w", err)
	}
	u.metrics.VisitsEmitted.Add(float64(len(visits)))

	day := fetchedAt.In(u.loc).Format("2006-01-02")
	var routeIDs []int64
	for _, v := range vehicles {
		if v.RouteID != 0 {
			routeIDs = append(routeIDs, v.RouteID)
		}
	}
	for _, routeID := range filter.Uniq(routeIDs) {
		if err := u.store.MergeRouteDailyStats(ctx, day, routeID, fetchedAt); err != nil {
			u.metrics.PollFailures.Inc()
			return fmt.Errorf("failed to merge route daily stats: %w", err)
		}
	}

	u.metrics.PollDuration.Observe(time.Since(start).Seconds())
	if len(visits) > 0 {
		log.Printf("Poll cycle: %d vehicles, %d stop visits", len(vehicles), len(visits))
	}
	return nil
}

func snapshots(vehicles []models.VehiclePosition, fetchedAt time.Time) []models.VehicleSnapshot {
	out := make([]models.VehicleSnapshot, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, models.VehicleSnapshot{
			VehicleID:  v.ID,
			Label:      v.Label,
			Latitude:   v.Latitude,
			Longitude:  v.Longitude,
			ReportedAt: v.ObservedTime(fetchedAt),
			Speed:      v.Speed,
			RouteID:    v.RouteID,
			TripID:     v.TripID,
			FetchedAt:  fetchedAt,
		})
	}
	return out
}
