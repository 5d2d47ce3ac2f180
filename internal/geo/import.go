package geo

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Import loads start,end,country rows (the DB-IP "country lite" CSV layout)
// into the range table at dbPath, replacing any previous contents. A header
// row is skipped. It returns the number of ranges written.
func Import(r io.Reader, dbPath string) (int, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return 0, fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ip_ranges"); err != nil {
		return 0, fmt.Errorf("failed to clear ranges: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO ip_ranges (start_ip, end_ip, country) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	count := 0
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", row, err)
		}
		if len(record) < 3 {
			return 0, fmt.Errorf("row %d: want start,end,country, got %d fields", row, len(record))
		}

		start := net.ParseIP(strings.TrimSpace(record[0]))
		if start == nil && row == 1 {
			continue // header
		}
		end := net.ParseIP(strings.TrimSpace(record[1]))
		if start == nil || end == nil {
			return 0, fmt.Errorf("row %d: invalid address range %q-%q", row, record[0], record[1])
		}
		if (start.To4() == nil) != (end.To4() == nil) {
			return 0, fmt.Errorf("row %d: range mixes IPv4 and IPv6", row)
		}

		startKey, _ := rangeKey(start)
		endKey, _ := rangeKey(end)
		if startKey > endKey {
			return 0, fmt.Errorf("row %d: range start %s is after end %s", row, start, end)
		}

		country := strings.ToUpper(strings.TrimSpace(record[2]))
		if country == "" || country == "ZZ" {
			continue // unassigned
		}

		if _, err := stmt.Exec(startKey, endKey, country); err != nil {
			return 0, fmt.Errorf("row %d: %w", row, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
