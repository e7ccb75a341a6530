// Package analytics derives empirical arrival-time schedules and same-day
// predictions from recorded stop visits.
package analytics

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/filter"
	"github.com/nanolookc/transport-map/internal/models"
	"github.com/nanolookc/transport-map/internal/store"
)

// ErrUnknownStop is returned when the requested stop is not in the
// reference snapshot.
var ErrUnknownStop = errors.New("unknown stop")

// windowDays is the rolling analytics window: six prior days plus today.
const windowDays = 7

// Arrival is one observed or predicted stop arrival.
type Arrival struct {
	Time      string  `json:"time"`
	Minutes   float64 `json:"minutes"`
	Predicted bool    `json:"predicted"`
}

// RouteArrivals groups one day's arrivals for a single route.
type RouteArrivals struct {
	RouteID  int64     `json:"route_id"`
	Arrivals []Arrival `json:"arrivals"`
}

// Day is one calendar day of the report.
type Day struct {
	Date   string          `json:"date"`
	Today  bool            `json:"today,omitempty"`
	Routes []RouteArrivals `json:"routes"`
}

// RouteInfo is the display metadata attached per route in the window.
type RouteInfo struct {
	ID        int64  `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Color     string `json:"color,omitempty"`
}

// StopReport is the full analytics payload for one stop.
type StopReport struct {
	Stop   *models.Stop `json:"stop"`
	Routes []RouteInfo  `json:"routes"`
	Days   []Day        `json:"days"`
}

// RouteStats holds first-seen-of-day percentiles for a route.
type RouteStats struct {
	SampleCount int    `json:"sample_count"`
	P50         string `json:"p50"`
	P90         string `json:"p90"`
	P99         string `json:"p99"`
}

// Engine answers analytics queries against the visit store and the
// reference snapshot. It is independent of the poll cycle.
type Engine struct {
	store  *store.Store
	engine *cache.Engine
	loc    *time.Location
}

// New creates an analytics engine.
func New(st *store.Store, eng *cache.Engine, loc *time.Location) *Engine {
	return &Engine{store: st, engine: eng, loc: loc}
}

// StopReport builds the rolling 7-day view of observed and predicted
// arrivals for a stop, evaluated at the given time.
func (e *Engine) StopReport(ctx context.Context, stopID int64, now time.Time) (*StopReport, error) {
	ref := e.engine.Reference()
	stop, ok := ref.Stops[stopID]
	if !ok {
		return nil, ErrUnknownStop
	}

	nowLocal := now.In(e.loc)
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, e.loc)
	since := today.AddDate(0, 0, -(windowDays - 1))

	visits, err := e.store.VisitsForStopSince(ctx, stopID, since)
	if err != nil {
		return nil, err
	}
	// Visits for routes no longer in the reference data are excluded.
	visits = filter.Filter(visits, func(v models.StopVisit) bool {
		_, ok := ref.Routes[v.RouteID]
		return ok
	})

	// Bucket by local calendar day, then by route, as sorted run times.
	buckets := make(map[string]map[int64][]float64)
	var routeIDs []int64
	for _, v := range visits {
		day := DayKey(v.ObservedAt, e.loc)
		if buckets[day] == nil {
			buckets[day] = make(map[int64][]float64)
		}
		buckets[day][v.RouteID] = append(buckets[day][v.RouteID], MinuteOfDay(v.ObservedAt, e.loc))
		routeIDs = append(routeIDs, v.RouteID)
	}
	for _, byRoute := range buckets {
		for _, runs := range byRoute {
			sort.Float64s(runs)
		}
	}
	routeIDs = filter.Uniq(routeIDs)
	sortRoutes(routeIDs, ref)

	todayKey := DayKey(today, e.loc)

	// Positionally merge each route's historical day sequences into a
	// predicted run sequence.
	predicted := make(map[int64][]float64, len(routeIDs))
	for _, routeID := range routeIDs {
		var history [][]float64
		for offset := windowDays - 1; offset >= 1; offset-- {
			day := DayKey(today.AddDate(0, 0, -offset), e.loc)
			if runs := buckets[day][routeID]; len(runs) > 0 {
				history = append(history, runs)
			}
		}
		predicted[routeID] = MergePositional(history)
	}

	nowMinutes := MinuteOfDay(now, e.loc)

	report := &StopReport{
		Stop:   stop,
		Routes: make([]RouteInfo, 0, len(routeIDs)),
		Days:   []Day{},
	}
	for _, routeID := range routeIDs {
		r := ref.Routes[routeID]
		report.Routes = append(report.Routes, RouteInfo{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Color:     r.Color,
		})
	}

	for offset := windowDays - 1; offset >= 0; offset-- {
		dayStart := today.AddDate(0, 0, -offset)
		dayKey := DayKey(dayStart, e.loc)
		isToday := dayKey == todayKey

		day := Day{Date: dayKey, Today: isToday}
		for _, routeID := range routeIDs {
			arrivals := observedArrivals(buckets[dayKey][routeID])
			if isToday {
				// Predicted runs still ahead of the current time are
				// appended; past unobserved predictions are dropped.
				for _, m := range predicted[routeID] {
					if m > nowMinutes {
						arrivals = append(arrivals, Arrival{
							Time:      ClockString(m),
							Minutes:   m,
							Predicted: true,
						})
					}
				}
				sort.Slice(arrivals, func(i, j int) bool { return arrivals[i].Minutes < arrivals[j].Minutes })
			}
			if len(arrivals) > 0 {
				day.Routes = append(day.Routes, RouteArrivals{RouteID: routeID, Arrivals: arrivals})
			}
		}
		if len(day.Routes) > 0 {
			report.Days = append(report.Days, day)
		}
	}

	return report, nil
}

// RouteStats computes first-seen-of-day percentiles across the route's
// daily stats rows. Returns nil when the route has no samples.
func (e *Engine) RouteStats(ctx context.Context, routeID int64) (*RouteStats, error) {
	rows, err := e.store.RouteDailyStats(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	samples := make([]float64, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, MinuteOfDay(r.FirstSeen, e.loc))
	}
	return &RouteStats{
		SampleCount: len(samples),
		P50:         ClockString(Percentile(samples, 50)),
		P90:         ClockString(Percentile(samples, 90)),
		P99:         ClockString(Percentile(samples, 99)),
	}, nil
}

func observedArrivals(runs []float64) []Arrival {
	arrivals := make([]Arrival, 0, len(runs))
	for _, m := range runs {
		arrivals = append(arrivals, Arrival{Time: ClockString(m), Minutes: m})
	}
	return arrivals
}

// sortRoutes orders routes by short name, falling back to numeric ID, for
// display stability.
func sortRoutes(ids []int64, ref *cache.Reference) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ref.Routes[ids[i]], ref.Routes[ids[j]]
		if a.ShortName != b.ShortName {
			return a.ShortName < b.ShortName
		}
		return a.ID < b.ID
	})
}
