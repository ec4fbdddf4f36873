// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port               string
	CORSAllowedOrigins []string

	// Remote precipitation service.
	BaseURL     string
	Dataset     string
	HTTPTimeout time.Duration

	// Optional local NetCDF source; takes precedence over the remote
	// service when set.
	NetCDFPath  string
	NetCDFEpoch time.Time

	// Smoothness-penalty constant for the seasonal fit.
	Smoothing float64
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	timeoutStr := envOrDefault("RAINFALL_HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid RAINFALL_HTTP_TIMEOUT")
	}

	smoothing := 1.0
	if s := os.Getenv("RAINFALL_SMOOTHING"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return nil, errors.New("invalid RAINFALL_SMOOTHING")
		}
		smoothing = v
	}

	epoch := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	if s := os.Getenv("RAINFALL_NETCDF_EPOCH"); s != "" {
		epoch, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid RAINFALL_NETCDF_EPOCH: %w", err)
		}
	}

	cfg := &Config{
		Port:               envOrDefault("PORT", "8080"),
		CORSAllowedOrigins: splitNonEmpty(os.Getenv("CORS_ALLOWED_ORIGINS")),
		BaseURL:            strings.TrimRight(os.Getenv("RAINFALL_BASE_URL"), "/"),
		Dataset:            envOrDefault("RAINFALL_DATASET", "chirps"),
		HTTPTimeout:        timeout,
		NetCDFPath:         os.Getenv("RAINFALL_NETCDF_PATH"),
		NetCDFEpoch:        epoch,
		Smoothing:          smoothing,
	}

	if cfg.BaseURL == "" && cfg.NetCDFPath == "" {
		return nil, errors.New("either RAINFALL_BASE_URL or RAINFALL_NETCDF_PATH is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
