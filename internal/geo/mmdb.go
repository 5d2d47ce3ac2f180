package geo

import (
	"authviz/internal/types"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// MMDBLookup answers country lookups from a MaxMind database held in memory
type MMDBLookup struct {
	reader *geoip2.Reader
}

// OpenMMDB loads a GeoIP2/GeoLite2 Country or City database into memory
func OpenMMDB(path string) (*MMDBLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGeoDatabaseUnavailable, err)
	}

	reader, err := geoip2.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrGeoDatabaseUnavailable, path, err)
	}

	dbType := reader.Metadata().DatabaseType
	if !strings.Contains(dbType, "Country") && !strings.Contains(dbType, "City") && !strings.Contains(dbType, "Enterprise") {
		reader.Close()
		return nil, fmt.Errorf("%w: %s is a %s database, need Country or City", types.ErrGeoDatabaseUnavailable, path, dbType)
	}

	return &MMDBLookup{reader: reader}, nil
}

// Country returns the ISO code of the country the address is located in,
// falling back to the registered country.
func (m *MMDBLookup) Country(ip net.IP) (string, bool) {
	rec, err := m.reader.Country(ip)
	if err != nil {
		return "", false
	}
	if rec.Country.IsoCode != "" {
		return rec.Country.IsoCode, true
	}
	if rec.RegisteredCountry.IsoCode != "" {
		return rec.RegisteredCountry.IsoCode, true
	}
	return "", false
}

func (m *MMDBLookup) Close() error {
	return m.reader.Close()
}
