package parser

import (
	"authviz/internal/types"
	"time"
)

// Match is the part of a failed-login line the extractor pulls out
type Match struct {
	User    string
	Address string
	Pattern types.Pattern
}

// Extractor classifies a single log line
type Extractor interface {
	Extract(line string) (Match, bool)
	ParseTimestamp(line string, year int, loc *time.Location) (time.Time, error)
}
