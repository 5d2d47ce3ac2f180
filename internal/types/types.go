package types

import "time"

// UnknownCountry is the country recorded when an address cannot be geolocated
const UnknownCountry = "Unknown"

// Pattern identifies which failed-login message a line matched
type Pattern string

const (
	PatternInvalidUser Pattern = "invalid_user"
	PatternNotAllowed  Pattern = "not_allowed"
)

// LoginAttempt is one failed SSH login parsed from the auth log.
// Values are never modified once the analyzer has built them.
type LoginAttempt struct {
	User          string    `json:"user"`
	SourceAddress string    `json:"source_address"`
	Country       string    `json:"country"`
	Timestamp     time.Time `json:"timestamp"`
	RawLine       string    `json:"raw_line"`
	Pattern       Pattern   `json:"pattern"`
}

// Mode selects the aggregation a run performs
type Mode string

const (
	ModeCountry Mode = "country"
	ModeHeatmap Mode = "heatmap"
)

// Bucketing selects how the heatmap groups attempts into day columns
type Bucketing string

const (
	BucketingCalendar Bucketing = "calendar" // one column per calendar date
	BucketingRolling  Bucketing = "rolling"  // rolling 24h windows keyed by day-of-month
)

// Geo backends
const (
	GeoTypeMMDB   = "mmdb"
	GeoTypeSQLite = "sqlite"
	GeoTypeStatic = "static"
)

// Config represents the application configuration
type Config struct {
	Input struct {
		AuthLogPath   string `yaml:"auth_log_path"`
		ReferenceYear int    `yaml:"reference_year"` // 0 = current year
		Timezone      string `yaml:"timezone"`       // IANA name or "Local"
	} `yaml:"input"`

	Geo struct {
		Type             string            `yaml:"type"` // mmdb, sqlite, static
		Path             string            `yaml:"path"`
		ResolveHostnames bool              `yaml:"resolve_hostnames"`
		ResolveTimeout   time.Duration     `yaml:"resolve_timeout"`
		Overrides        map[string]string `yaml:"overrides"` // address or CIDR -> country
	} `yaml:"geo"`

	Heatmap struct {
		Bucketing Bucketing `yaml:"bucketing"`
	} `yaml:"heatmap"`

	Render struct {
		Width    float64 `yaml:"width"`  // inches
		Height   float64 `yaml:"height"` // inches
		TopLimit int     `yaml:"top_sources"`
	} `yaml:"render"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`

	Output struct {
		AuditLogPath    string `yaml:"audit_log_path"`
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"output"`
}
