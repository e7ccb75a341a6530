package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Percentile returns the p-th percentile of samples using linear
// interpolation between order statistics. A single sample is returned
// as-is; an empty input yields 0.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(idx-float64(lower))
}

// MergePositional merges per-day run sequences positionally: the i-th
// output is the median of the i-th entry of every day that has at least
// i+1 runs. The output length is the deepest run count observed.
func MergePositional(days [][]float64) []float64 {
	depth := 0
	for _, d := range days {
		if len(d) > depth {
			depth = len(d)
		}
	}
	merged := make([]float64, 0, depth)
	for i := 0; i < depth; i++ {
		var runs []float64
		for _, d := range days {
			if i < len(d) {
				runs = append(runs, d[i])
			}
		}
		merged = append(merged, Percentile(runs, 50))
	}
	return merged
}

// MinuteOfDay returns t's local time-of-day in minutes, including
// fractional seconds.
func MinuteOfDay(t time.Time, loc *time.Location) float64 {
	lt := t.In(loc)
	return float64(lt.Hour())*60 + float64(lt.Minute()) + float64(lt.Second())/60
}

// DayKey returns t's local calendar day as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// ClockString renders a minute-of-day value as HH:MM:SS.
func ClockString(minutes float64) string {
	total := int(math.Round(minutes * 60))
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
