package updater

import (
	"context"
	"fmt"
	"log"

	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/metrics"
	"github.com/nanolookc/transport-map/internal/provider"
	"github.com/nanolookc/transport-map/internal/store"
)

// StaticUpdater rebuilds the persisted reference tables and the in-memory
// reference snapshot from the provider's reference endpoints.
type StaticUpdater struct {
	provider *provider.Client
	store    *store.Store
	engine   *cache.Engine
	metrics  *metrics.Collector
}

// NewStaticUpdater creates a static refresh updater.
func NewStaticUpdater(p *provider.Client, st *store.Store, eng *cache.Engine, m *metrics.Collector) *StaticUpdater {
	return &StaticUpdater{provider: p, store: st, engine: eng, metrics: m}
}

// Update fetches the full reference graph, replaces each persisted table
// in its own transaction, then swaps the in-memory snapshot. All fetches
// complete before the first write, so a provider failure leaves both the
// tables and the snapshot untouched.
func (u *StaticUpdater) Update(ctx context.Context) error {
	u.metrics.RefreshTotal.Inc()

	routes, err := u.provider.Routes(ctx)
	if err != nil {
		u.metrics.RefreshFailures.Inc()
		return err
	}
	trips, err := u.provider.Trips(ctx)
	if err != nil {
		u.metrics.RefreshFailures.Inc()
		return err
	}
	stops, err := u.provider.Stops(ctx)
	if err != nil {
		u.metrics.RefreshFailures.Inc()
		return err
	}
	stopTimes, err := u.provider.StopTimes(ctx)
	if err != nil {
		u.metrics.RefreshFailures.Inc()
		return err
	}
	shapes, err := u.provider.Shapes(ctx)
	if err != nil {
		u.metrics.RefreshFailures.Inc()
		return err
	}

	if err := u.store.ReplaceRoutes(ctx, routes); err != nil {
		u.metrics.RefreshFailures.Inc()
		return fmt.Errorf("failed to replace routes: %w", err)
	}
	if err := u.store.ReplaceTrips(ctx, trips); err != nil {
		u.metrics.RefreshFailures.Inc()
		return fmt.Errorf("failed to replace trips: %w", err)
	}
	if err := u.store.ReplaceStops(ctx, stops); err != nil {
		u.metrics.RefreshFailures.Inc()
		return fmt.Errorf("failed to replace stops: %w", err)
	}
	if err := u.store.ReplaceStopTimes(ctx, stopTimes); err != nil {
		u.metrics.RefreshFailures.Inc()
		return fmt.Errorf("failed to replace stop times: %w", err)
	}
	if err := u.store.ReplaceShapePoints(ctx, shapes); err != nil {
		u.metrics.RefreshFailures.Inc()
		return fmt.Errorf("failed to replace shape points: %w", err)
	}

	u.engine.SwapReference(cache.BuildReference(routes, trips, stops, stopTimes))

	log.Printf("Static refresh: %d routes, %d trips, %d stops, %d stop times, %d shape points",
		len(routes), len(trips), len(stops), len(stopTimes), len(shapes))
	return nil
}
