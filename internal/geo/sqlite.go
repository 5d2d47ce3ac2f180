package geo

import (
	"authviz/internal/types"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS ip_ranges (
		start_ip TEXT NOT NULL,
		end_ip TEXT NOT NULL,
		country TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ip_ranges_start ON ip_ranges(start_ip);`

// SQLiteLookup answers country lookups from an IP range table. Addresses are
// stored as 32 hex digits of their 16-byte form so IPv4 and IPv6 ranges sort
// together as text.
type SQLiteLookup struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenSQLite opens an existing range database read-only
func OpenSQLite(path string) (*SQLiteLookup, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGeoDatabaseUnavailable, err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGeoDatabaseUnavailable, err)
	}

	stmt, err := db.Prepare(`
		SELECT end_ip, country
		FROM ip_ranges
		WHERE start_ip <= ?
		ORDER BY start_ip DESC
		LIMIT 1
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", types.ErrGeoDatabaseUnavailable, path, err)
	}

	return &SQLiteLookup{db: db, stmt: stmt}, nil
}

// Country finds the range with the greatest start not above ip and checks
// that ip is inside it.
func (s *SQLiteLookup) Country(ip net.IP) (string, bool) {
	key, ok := rangeKey(ip)
	if !ok {
		return "", false
	}

	var end, country string
	if err := s.stmt.QueryRow(key).Scan(&end, &country); err != nil {
		// sql.ErrNoRows: below the first range
		return "", false
	}
	if key > end || country == "" {
		return "", false
	}
	return country, true
}

func (s *SQLiteLookup) Close() error {
	s.stmt.Close()
	return s.db.Close()
}

func rangeKey(ip net.IP) (string, bool) {
	b := ip.To16()
	if b == nil {
		return "", false
	}
	return hex.EncodeToString(b), true
}
