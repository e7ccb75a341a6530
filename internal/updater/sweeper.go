package updater

import (
	"context"
	"log"
	"time"

	"github.com/nanolookc/transport-map/internal/metrics"
	"github.com/nanolookc/transport-map/internal/store"
)

// RetentionSweeper deletes snapshots and visits past the retention horizon.
type RetentionSweeper struct {
	store     *store.Store
	metrics   *metrics.Collector
	retention time.Duration
}

// NewRetentionSweeper creates a sweeper with the given horizon.
func NewRetentionSweeper(st *store.Store, m *metrics.Collector, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{store: st, metrics: m, retention: retention}
}

// Sweep removes rows older than the horizon. Cache state is unaffected.
func (s *RetentionSweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)
	snapshots, visits, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	s.metrics.RetentionDeleted.WithLabelValues("snapshots").Add(float64(snapshots))
	s.metrics.RetentionDeleted.WithLabelValues("visits").Add(float64(visits))
	if snapshots > 0 || visits > 0 {
		log.Printf("Retention sweep: removed %d snapshots, %d visits", snapshots, visits)
	}
	return nil
}
