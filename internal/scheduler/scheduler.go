// Package scheduler runs self-rescheduling ingestion loops. Each loop
// executes one cycle at a time and arms the next timer only after the
// current cycle settles, so cycles of the same loop never overlap.
package scheduler

import (
	"context"
	"log"
	"time"
)

// IntervalFunc selects the delay before the next cycle, evaluated at the
// moment the previous cycle completed.
type IntervalFunc func(now time.Time) time.Duration

// FixedInterval returns the same delay regardless of the time of day.
func FixedInterval(d time.Duration) IntervalFunc {
	return func(time.Time) time.Duration { return d }
}

// DayNightInterval returns day during [startHour, endHour) local hours and
// night otherwise.
func DayNightInterval(day, night time.Duration, startHour, endHour int, loc *time.Location) IntervalFunc {
	return func(now time.Time) time.Duration {
		h := now.In(loc).Hour()
		if h >= startHour && h < endHour {
			return day
		}
		return night
	}
}

// Loop is one self-rescheduling worker.
type Loop struct {
	Name string
	Run  func(ctx context.Context) error
	Next IntervalFunc

	// SkipFirst delays the first cycle by one interval instead of running
	// immediately, for loops whose initial cycle happens during startup.
	SkipFirst bool
}

// Start runs the loop until the context is cancelled. Cycle errors are
// logged and swallowed; the next cycle is scheduled either way.
func (l *Loop) Start(ctx context.Context) {
	if l.SkipFirst {
		if !l.sleep(ctx) {
			return
		}
	}
	for {
		if err := l.Run(ctx); err != nil {
			log.Printf("%s cycle failed: %v", l.Name, err)
		}
		if !l.sleep(ctx) {
			return
		}
	}
}

func (l *Loop) sleep(ctx context.Context) bool {
	t := time.NewTimer(l.Next(time.Now()))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
