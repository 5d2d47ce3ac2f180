package geo

import (
	"authviz/internal/types"
	"fmt"

	"go.uber.org/zap"
)

// DefaultPath is the database location used when geo.path is empty
func DefaultPath(geoType string) string {
	switch geoType {
	case types.GeoTypeMMDB:
		return "/usr/share/GeoIP/GeoLite2-Country.mmdb"
	case types.GeoTypeSQLite:
		return "/var/lib/authviz/geo.db"
	}
	return ""
}

// Open builds the Enricher described by the geo section of the config. The
// database is opened once here and held until Close.
func Open(cfg *types.Config, logger *zap.Logger) (*Enricher, error) {
	path := cfg.Geo.Path
	if path == "" {
		path = DefaultPath(cfg.Geo.Type)
	}

	var lookup Lookup
	switch cfg.Geo.Type {
	case types.GeoTypeMMDB:
		l, err := OpenMMDB(path)
		if err != nil {
			return nil, err
		}
		lookup = l
	case types.GeoTypeSQLite:
		l, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		lookup = l
	case types.GeoTypeStatic:
		path = ""
	default:
		return nil, fmt.Errorf("unknown geo type %q", cfg.Geo.Type)
	}

	enricher, err := NewEnricher(lookup, Options{
		Overrides:        cfg.Geo.Overrides,
		ResolveHostnames: cfg.Geo.ResolveHostnames,
		ResolveTimeout:   cfg.Geo.ResolveTimeout,
		Logger:           logger,
	})
	if err != nil {
		if lookup != nil {
			lookup.Close()
		}
		return nil, err
	}

	if logger != nil {
		logger.Debug("geolocation ready",
			zap.String("type", cfg.Geo.Type),
			zap.String("path", path),
			zap.Int("overrides", len(cfg.Geo.Overrides)))
	}
	return enricher, nil
}
