package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	assert.Zero(t, Percentile(nil, 50))
	assert.Equal(t, 42.0, Percentile([]float64{42}, 50))
	assert.Equal(t, 42.0, Percentile([]float64{42}, 99))

	samples := []float64{5, 7, 6}
	assert.Equal(t, 6.0, Percentile(samples, 50))
	// input must not be reordered
	assert.Equal(t, []float64{5, 7, 6}, samples)

	// linear interpolation between order statistics
	assert.Equal(t, 15.0, Percentile([]float64{10, 20}, 50))
	assert.InDelta(t, 19.0, Percentile([]float64{10, 20}, 90), 1e-9)
}

func TestMergePositionalIsOrderPreserving(t *testing.T) {
	merged := MergePositional([][]float64{{5, 20}, {7, 18}, {6, 22}})
	assert.Equal(t, []float64{6, 20}, merged)
}

func TestMergePositionalRaggedDepth(t *testing.T) {
	// run 2 exists on a single day only; its median is that sample
	merged := MergePositional([][]float64{{5, 20, 31}, {7, 18}})
	assert.Equal(t, []float64{6, 19, 31}, merged)

	assert.Empty(t, MergePositional(nil))
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2026, 8, 25, 8, 16, 30, 0, time.UTC)
	assert.InDelta(t, 8*60+16.5, MinuteOfDay(ts, time.UTC), 1e-9)
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "08:16:30", ClockString(8*60+16.5))
	assert.Equal(t, "00:00:00", ClockString(0))
	assert.Equal(t, "23:59:59", ClockString(23*60+59+59.0/60))
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 8, 25, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-25", DayKey(ts, time.UTC))
}
