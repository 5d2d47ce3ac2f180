package parser

import (
	"authviz/internal/types"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimestampParser reads the event time out of a syslog line
type TimestampParser struct {
	reRFC3339 *regexp.Regexp
	reSyslog  *regexp.Regexp
}

func NewTimestampParser() *TimestampParser {
	return &TimestampParser{
		// rsyslog high precision: 2024-01-05T10:00:01.123456+00:00 host sshd[1]: ...
		reRFC3339: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))\s`),
		// Traditional: Jan  5 10:00:01 host sshd[1]: ...
		reSyslog: regexp.MustCompile(`\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2})\s+(\d{2}:\d{2}:\d{2})\b`),
	}
}

// Parse returns the time of the line. Syslog stamps carry no year, so the
// given year is assumed. An RFC 3339 prefix keeps its own year and is
// converted to loc.
func (p *TimestampParser) Parse(line string, year int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	if m := p.reRFC3339.FindStringSubmatch(line); m != nil {
		ts, err := time.Parse(time.RFC3339Nano, m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", types.ErrDateParse, err)
		}
		return ts.In(loc), nil
	}

	m := p.reSyslog.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, types.ErrDateParse
	}

	day, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", types.ErrDateParse, err)
	}

	// time.Parse rejects impossible dates such as Feb 30 for us
	stamp := fmt.Sprintf("%s %02d %s %04d", m[1], day, m[3], year)
	ts, err := time.ParseInLocation("Jan 02 15:04:05 2006", stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", types.ErrDateParse, err)
	}
	return ts, nil
}
