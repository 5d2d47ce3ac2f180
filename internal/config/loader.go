package config

import (
	"authviz/internal/types"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file is looked up when --config is not given
const DefaultPath = "/etc/authviz/config.yml"

// Default returns a configuration with every default applied
func Default() *types.Config {
	var cfg types.Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadConfig reads the configuration from the given path, then applies
// environment overrides and defaults. When optional is true a missing file
// is not an error and the defaults are used instead.
func LoadConfig(path string, optional bool) (*types.Config, error) {
	var cfg types.Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays AUTHVIZ_* variables, loading a .env file from the
// working directory first if one exists.
func applyEnv(cfg *types.Config) error {
	_ = godotenv.Load()

	if v := os.Getenv("AUTHVIZ_LOGFILE"); v != "" {
		cfg.Input.AuthLogPath = v
	}
	if v := os.Getenv("AUTHVIZ_GEODB"); v != "" {
		cfg.Geo.Path = v
	}
	if v := os.Getenv("AUTHVIZ_GEODB_TYPE"); v != "" {
		cfg.Geo.Type = v
	}
	if v := os.Getenv("AUTHVIZ_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AUTHVIZ_REFERENCE_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AUTHVIZ_REFERENCE_YEAR %q: %w", v, err)
		}
		cfg.Input.ReferenceYear = year
	}
	return nil
}

// applyDefaults fills every zero value that has a default. The geo database
// path is left empty so it can follow a --geodb-type given on the command line.
func applyDefaults(cfg *types.Config) {
	if cfg.Input.AuthLogPath == "" {
		cfg.Input.AuthLogPath = "/var/log/auth.log"
	}
	if cfg.Input.Timezone == "" {
		cfg.Input.Timezone = "Local"
	}

	if cfg.Geo.Type == "" {
		cfg.Geo.Type = types.GeoTypeMMDB
	}
	if cfg.Geo.ResolveTimeout == 0 {
		cfg.Geo.ResolveTimeout = 2 * time.Second
	}

	if cfg.Heatmap.Bucketing == "" {
		cfg.Heatmap.Bucketing = types.BucketingCalendar
	}

	if cfg.Render.Width == 0 {
		cfg.Render.Width = 8
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = 6
	}
	if cfg.Render.TopLimit == 0 {
		cfg.Render.TopLimit = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}
}

// Validate rejects values no component can work with
func Validate(cfg *types.Config) error {
	switch cfg.Geo.Type {
	case types.GeoTypeMMDB, types.GeoTypeSQLite, types.GeoTypeStatic:
	default:
		return fmt.Errorf("unknown geo type %q (want mmdb, sqlite or static)", cfg.Geo.Type)
	}

	switch cfg.Heatmap.Bucketing {
	case types.BucketingCalendar, types.BucketingRolling:
	default:
		return fmt.Errorf("unknown heatmap bucketing %q (want calendar or rolling)", cfg.Heatmap.Bucketing)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}

	if cfg.Render.Width <= 0 || cfg.Render.Height <= 0 {
		return fmt.Errorf("render size must be positive, got %gx%g", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Input.ReferenceYear < 0 {
		return fmt.Errorf("reference year must not be negative, got %d", cfg.Input.ReferenceYear)
	}
	if _, err := Location(cfg); err != nil {
		return err
	}
	return nil
}

// Location resolves input.timezone
func Location(cfg *types.Config) (*time.Location, error) {
	if cfg.Input.Timezone == "" || cfg.Input.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Input.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Input.Timezone, err)
	}
	return loc, nil
}
