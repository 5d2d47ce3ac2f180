package parser

import (
	"authviz/internal/types"
	"regexp"
	"strings"
	"time"
)

// SSHParser extracts failed logins from sshd lines
type SSHParser struct {
	// Checked in order, first match wins
	patterns []linePattern

	timestamps *TimestampParser
}

type linePattern struct {
	kind types.Pattern
	re   *regexp.Regexp
}

// NewSSHParser creates a new SSH log parser
func NewSSHParser() *SSHParser {
	return &SSHParser{
		patterns: []linePattern{
			{
				// Invalid user admin from 203.0.113.5 port 4242
				kind: types.PatternInvalidUser,
				re:   regexp.MustCompile(`Invalid user (.+?) from (\S+)`),
			},
			{
				// User bob from host.example.org not allowed because not listed in AllowUsers
				kind: types.PatternNotAllowed,
				re:   regexp.MustCompile(`User (.+?) from (\S+) not allowed because not listed in AllowUsers`),
			},
		},
		timestamps: NewTimestampParser(),
	}
}

// Extract returns the user and source address of a failed login, or false
// when the line is not one of the recognized failures.
func (p *SSHParser) Extract(line string) (Match, bool) {
	for _, pat := range p.patterns {
		matches := pat.re.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}

		user := strings.TrimSpace(matches[1])
		addr := strings.TrimSpace(matches[2])
		if user == "" || addr == "" {
			continue
		}

		return Match{User: user, Address: addr, Pattern: pat.kind}, true
	}
	return Match{}, false
}

// ParseTimestamp finds the event time in the line
func (p *SSHParser) ParseTimestamp(line string, year int, loc *time.Location) (time.Time, error) {
	return p.timestamps.Parse(line, year, loc)
}
