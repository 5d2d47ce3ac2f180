package types

import "errors"

var (
	ErrFileNotFound           = errors.New("log file not found")
	ErrFileUnreadable         = errors.New("log file unreadable")
	ErrGeoDatabaseUnavailable = errors.New("geolocation database unavailable")
	ErrNoMatchingRecords      = errors.New("no failed login attempts found")

	// ErrDateParse is per line; the analyzer skips the line and keeps going.
	ErrDateParse = errors.New("no parseable timestamp")
)
