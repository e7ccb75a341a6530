package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PROVIDER_BASE_URL", "http://provider.example")
	t.Setenv("PROVIDER_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.ListenAddr)
	assert.Equal(t, 15*time.Second, cfg.PollDayInterval)
	assert.Equal(t, time.Minute, cfg.PollNightInterval)
	assert.Equal(t, 6, cfg.DayWindowStart)
	assert.Equal(t, 24, cfg.DayWindowEnd)
	assert.Equal(t, 6*time.Hour, cfg.StaticRefreshInterval)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 50.0, cfg.EntryRadiusM)
	assert.Equal(t, 60.0, cfg.ExitRadiusM)
}

func TestLoadRequiresProvider(t *testing.T) {
	t.Setenv("PROVIDER_BASE_URL", "")
	t.Setenv("PROVIDER_API_KEY", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_DAY_INTERVAL_SEC", "5")
	t.Setenv("GEOFENCE_ENTRY_RADIUS_M", "30")
	t.Setenv("GEOFENCE_EXIT_RADIUS_M", "45")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollDayInterval)
	assert.Equal(t, 30.0, cfg.EntryRadiusM)
	assert.Equal(t, 45.0, cfg.ExitRadiusM)
}

func TestLoadRejectsInvertedRadii(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOFENCE_ENTRY_RADIUS_M", "70")
	t.Setenv("GEOFENCE_EXIT_RADIUS_M", "60")

	_, err := Load()
	assert.Error(t, err)
}
