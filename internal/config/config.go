package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from .env and the environment.
type Config struct {
	ListenAddr string
	DBPath     string

	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderAgency  string

	PollDayInterval   time.Duration
	PollNightInterval time.Duration
	DayWindowStart    int // local hour, inclusive
	DayWindowEnd      int // local hour, exclusive

	StaticRefreshInterval time.Duration
	RetentionSweepInterval time.Duration
	RetentionDays          int

	EntryRadiusM float64
	ExitRadiusM  float64

	Location *time.Location
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr: getenvDefault("LISTEN_ADDR", ":18080"),
		DBPath:     getenvDefault("DB_PATH", "transport-map.db"),
	}

	cfg.ProviderBaseURL = os.Getenv("PROVIDER_BASE_URL")
	if cfg.ProviderBaseURL == "" {
		return nil, errors.New("PROVIDER_BASE_URL must be set")
	}
	cfg.ProviderAPIKey = os.Getenv("PROVIDER_API_KEY")
	if cfg.ProviderAPIKey == "" {
		return nil, errors.New("PROVIDER_API_KEY must be set")
	}
	cfg.ProviderAgency = getenvDefault("PROVIDER_AGENCY_ID", "1")

	var err error
	if cfg.PollDayInterval, err = envSeconds("POLL_DAY_INTERVAL_SEC", 15); err != nil {
		return nil, err
	}
	if cfg.PollNightInterval, err = envSeconds("POLL_NIGHT_INTERVAL_SEC", 60); err != nil {
		return nil, err
	}
	if cfg.DayWindowStart, err = envInt("DAY_WINDOW_START_HOUR", 6); err != nil {
		return nil, err
	}
	if cfg.DayWindowEnd, err = envInt("DAY_WINDOW_END_HOUR", 24); err != nil {
		return nil, err
	}
	if cfg.DayWindowStart < 0 || cfg.DayWindowEnd > 24 || cfg.DayWindowStart >= cfg.DayWindowEnd {
		return nil, fmt.Errorf("invalid day window: %d-%d", cfg.DayWindowStart, cfg.DayWindowEnd)
	}

	if cfg.StaticRefreshInterval, err = envSeconds("STATIC_REFRESH_INTERVAL_SEC", 6*3600); err != nil {
		return nil, err
	}
	if cfg.RetentionSweepInterval, err = envSeconds("RETENTION_SWEEP_INTERVAL_SEC", 24*3600); err != nil {
		return nil, err
	}
	if cfg.RetentionDays, err = envInt("RETENTION_DAYS", 30); err != nil {
		return nil, err
	}

	if cfg.EntryRadiusM, err = envFloat("GEOFENCE_ENTRY_RADIUS_M", 50); err != nil {
		return nil, err
	}
	if cfg.ExitRadiusM, err = envFloat("GEOFENCE_EXIT_RADIUS_M", 60); err != nil {
		return nil, err
	}
	if cfg.EntryRadiusM >= cfg.ExitRadiusM {
		return nil, fmt.Errorf("entry radius %.0f must be below exit radius %.0f", cfg.EntryRadiusM, cfg.ExitRadiusM)
	}

	// Time zone
	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	} else {
		cfg.Location = time.Local
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func envSeconds(k string, def int) (time.Duration, error) {
	n, err := envInt(k, def)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", k)
	}
	return time.Duration(n) * time.Second, nil
}

func envFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return f, nil
}
