package analyzer

import (
	"authviz/internal/metrics"
	"authviz/internal/parser"
	"authviz/internal/types"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CountryResolver is the part of the geo enricher the analyzer needs
type CountryResolver interface {
	Resolve(address string) string
}

// LogAnalyzer turns log lines into login attempts. It is built once per run
// and holds everything extraction needs.
type LogAnalyzer struct {
	parser   parser.Extractor
	geo      CountryResolver
	year     int
	location *time.Location
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Options for a LogAnalyzer. Zero values pick the defaults: current year,
// local time zone, no logging and a fresh metrics registry.
type Options struct {
	ReferenceYear int
	Location      *time.Location
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// New creates an analyzer
func New(p parser.Extractor, geo CountryResolver, opts Options) *LogAnalyzer {
	a := &LogAnalyzer{
		parser:   p,
		geo:      geo,
		year:     opts.ReferenceYear,
		location: opts.Location,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if a.location == nil {
		a.location = time.Local
	}
	if a.year == 0 {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		a.year = now().In(a.location).Year()
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	return a
}

// Year is the year assumed for syslog timestamps
func (a *LogAnalyzer) Year() int {
	return a.year
}

// Analyze scans lines once, in order. Unrecognized lines are ignored and
// lines without a usable timestamp are skipped; neither stops the scan.
// ErrNoMatchingRecords is returned together with the (empty) collection
// when nothing was collected.
func (a *LogAnalyzer) Analyze(lines []string) (*Collection, error) {
	c := newCollection()

	for i, line := range lines {
		c.lines++
		a.metrics.LinesScanned.Inc()

		m, ok := a.parser.Extract(line)
		if !ok {
			c.skip(metrics.ReasonUnrecognized)
			a.metrics.LinesSkipped.WithLabelValues(metrics.ReasonUnrecognized).Inc()
			continue
		}

		ts, err := a.parser.ParseTimestamp(line, a.year, a.location)
		if err != nil {
			if !errors.Is(err, types.ErrDateParse) {
				return nil, err
			}
			c.skip(metrics.ReasonDate)
			a.metrics.LinesSkipped.WithLabelValues(metrics.ReasonDate).Inc()
			a.logger.Debug("skipping line without usable timestamp",
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}

		country := a.geo.Resolve(m.Address)
		if country == types.UnknownCountry {
			a.metrics.GeoLookups.WithLabelValues(metrics.ResultUnknown).Inc()
		} else {
			a.metrics.GeoLookups.WithLabelValues(metrics.ResultResolved).Inc()
		}

		c.append(types.LoginAttempt{
			User:          m.User,
			SourceAddress: m.Address,
			Country:       country,
			Timestamp:     ts,
			RawLine:       line,
			Pattern:       m.Pattern,
		})
		a.metrics.Attempts.WithLabelValues(string(m.Pattern)).Inc()
	}

	a.logger.Info("log scanned",
		zap.Int("lines", c.lines),
		zap.Int("attempts", c.Len()),
		zap.Int("skipped_date", c.skipped[metrics.ReasonDate]),
		zap.Int("year", a.year))

	if c.Len() == 0 {
		return c, types.ErrNoMatchingRecords
	}
	return c, nil
}
