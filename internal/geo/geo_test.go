package geo

import (
	"authviz/internal/config"
	"authviz/internal/types"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup struct {
	countries map[string]string
	calls     int
	closed    bool
}

func (m *mapLookup) Country(ip net.IP) (string, bool) {
	m.calls++
	c, ok := m.countries[ip.String()]
	return c, ok
}

func (m *mapLookup) Close() error {
	m.closed = true
	return nil
}

type fakeResolver map[string][]string

func (f fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := f[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	var out []net.IPAddr
	for _, ip := range ips {
		out = append(out, net.IPAddr{IP: net.ParseIP(ip)})
	}
	return out, nil
}

func TestEnricher_Resolve(t *testing.T) {
	lookup := &mapLookup{countries: map[string]string{"203.0.113.5": "US"}}
	e, err := NewEnricher(lookup, Options{})
	require.NoError(t, err)

	assert.Equal(t, "US", e.Resolve("203.0.113.5"))
	assert.Equal(t, types.UnknownCountry, e.Resolve("198.51.100.1"))
	assert.Equal(t, types.UnknownCountry, e.Resolve("not an address"))
	assert.Equal(t, types.UnknownCountry, e.Resolve(""))

	// memoized
	e.Resolve("203.0.113.5")
	assert.Equal(t, 2, lookup.calls)

	require.NoError(t, e.Close())
	assert.True(t, lookup.closed)
}

func TestEnricher_Overrides(t *testing.T) {
	lookup := &mapLookup{countries: map[string]string{"10.1.2.3": "XX", "192.0.2.1": "FR"}}
	e, err := NewEnricher(lookup, Options{
		Overrides: map[string]string{
			"10.0.0.0/8":  "LAN",
			"10.1.0.0/16": "LAB",
			"192.0.2.1":   "DE",
			"2001:db8::1": "NL",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "LAB", e.Resolve("10.1.2.3"))
	assert.Equal(t, "LAN", e.Resolve("10.9.9.9"))
	assert.Equal(t, "DE", e.Resolve("192.0.2.1"))
	assert.Equal(t, "NL", e.Resolve("2001:db8:0::1"))
	assert.Equal(t, "NL", e.Resolve("[2001:db8::1]"))
}

func TestEnricher_InvalidOverride(t *testing.T) {
	_, err := NewEnricher(nil, Options{Overrides: map[string]string{"10.0.0.0/33": "X"}})
	assert.Error(t, err)

	_, err = NewEnricher(nil, Options{Overrides: map[string]string{"example.org": "X"}})
	assert.Error(t, err)

	_, err = NewEnricher(nil, Options{Overrides: map[string]string{"192.0.2.1": " "}})
	assert.Error(t, err)
}

func TestEnricher_Hostnames(t *testing.T) {
	lookup := &mapLookup{countries: map[string]string{"203.0.113.5": "US"}}
	resolver := fakeResolver{"scanner.example.net": {"198.51.100.200", "203.0.113.5"}}

	off, err := NewEnricher(lookup, Options{Resolver: resolver})
	require.NoError(t, err)
	assert.Equal(t, types.UnknownCountry, off.Resolve("scanner.example.net"))

	on, err := NewEnricher(lookup, Options{Resolver: resolver, ResolveHostnames: true})
	require.NoError(t, err)
	assert.Equal(t, "US", on.Resolve("scanner.example.net"))
	assert.Equal(t, types.UnknownCountry, on.Resolve("gone.example.net"))
}

func TestSQLite_ImportAndLookup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "geo.db")
	csvData := strings.Join([]string{
		"start,end,country",
		"1.0.0.0,1.0.0.255,AU",
		"203.0.113.0,203.0.113.255,us",
		"198.51.100.0,198.51.100.255,ZZ",
		"2001:db8::,2001:db8::ffff,NL",
	}, "\n")

	n, err := Import(strings.NewReader(csvData), dbPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lookup, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer lookup.Close()

	tests := []struct {
		ip      string
		country string
		found   bool
	}{
		{"1.0.0.0", "AU", true},
		{"1.0.0.255", "AU", true},
		{"1.0.1.0", "", false},
		{"0.255.255.255", "", false},
		{"203.0.113.5", "US", true},
		{"198.51.100.7", "", false},
		{"2001:db8::42", "NL", true},
		{"2001:db9::1", "", false},
	}
	for _, tt := range tests {
		country, ok := lookup.Country(net.ParseIP(tt.ip))
		assert.Equal(t, tt.found, ok, tt.ip)
		assert.Equal(t, tt.country, country, tt.ip)
	}
}

func TestSQLite_ImportReplaces(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "geo.db")

	_, err := Import(strings.NewReader("1.0.0.0,1.0.0.255,AU\n"), dbPath)
	require.NoError(t, err)
	_, err = Import(strings.NewReader("1.0.0.0,1.0.0.255,NZ\n"), dbPath)
	require.NoError(t, err)

	lookup, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer lookup.Close()

	country, ok := lookup.Country(net.ParseIP("1.0.0.1"))
	require.True(t, ok)
	assert.Equal(t, "NZ", country)
}

func TestSQLite_ImportRejectsBadRows(t *testing.T) {
	rows := []string{
		"1.0.0.0,AU\n",
		"1.0.0.0,1.0.0.255,AU\nnope,1.0.1.255,AU\n",
		"1.0.0.255,1.0.0.0,AU\n",
		"1.0.0.0,2001:db8::1,AU\n",
	}
	for _, r := range rows {
		_, err := Import(strings.NewReader(r), filepath.Join(t.TempDir(), "geo.db"))
		assert.Error(t, err, r)
	}
}

func TestOpenSQLite_Unavailable(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGeoDatabaseUnavailable))

	notDB := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(notDB, []byte("definitely not sqlite, just some text padding it out"), 0o600))
	_, err = OpenSQLite(notDB)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGeoDatabaseUnavailable))
}

func writeMMDB(t *testing.T, networks map[string]string) string {
	t.Helper()

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType:            "GeoLite2-Country",
		IncludeReservedNetworks: true,
		RecordSize:              24,
	})
	require.NoError(t, err)

	for cidr, iso := range networks {
		_, network, err := net.ParseCIDR(cidr)
		require.NoError(t, err)
		require.NoError(t, tree.Insert(network, mmdbtype.Map{
			"country": mmdbtype.Map{"iso_code": mmdbtype.String(iso)},
		}))
	}

	path := filepath.Join(t.TempDir(), "country.mmdb")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = tree.WriteTo(f)
	require.NoError(t, err)
	return path
}

func TestMMDB_Lookup(t *testing.T) {
	path := writeMMDB(t, map[string]string{
		"81.2.69.0/24":   "GB",
		"203.0.113.0/24": "US",
	})

	lookup, err := OpenMMDB(path)
	require.NoError(t, err)
	defer lookup.Close()

	country, ok := lookup.Country(net.ParseIP("81.2.69.160"))
	require.True(t, ok)
	assert.Equal(t, "GB", country)

	country, ok = lookup.Country(net.ParseIP("203.0.113.5"))
	require.True(t, ok)
	assert.Equal(t, "US", country)

	_, ok = lookup.Country(net.ParseIP("8.8.8.8"))
	assert.False(t, ok)
}

func TestOpenMMDB_Unavailable(t *testing.T) {
	_, err := OpenMMDB(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGeoDatabaseUnavailable))

	garbage := filepath.Join(t.TempDir(), "garbage.mmdb")
	require.NoError(t, os.WriteFile(garbage, []byte("not a maxmind database"), 0o600))
	_, err = OpenMMDB(garbage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGeoDatabaseUnavailable))
}

func TestOpen_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Geo.Type = types.GeoTypeMMDB
	cfg.Geo.Path = writeMMDB(t, map[string]string{"81.2.69.0/24": "GB"})
	cfg.Geo.Overrides = map[string]string{"81.2.69.1": "IE"}

	e, err := Open(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "GB", e.Resolve("81.2.69.160"))
	assert.Equal(t, "IE", e.Resolve("81.2.69.1"))

	cfg.Geo.Type = types.GeoTypeStatic
	cfg.Geo.Path = ""
	static, err := Open(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "IE", static.Resolve("81.2.69.1"))
	assert.Equal(t, types.UnknownCountry, static.Resolve("81.2.69.160"))

	cfg.Geo.Type = types.GeoTypeSQLite
	cfg.Geo.Path = filepath.Join(t.TempDir(), "missing.db")
	_, err = Open(cfg, nil)
	assert.True(t, errors.Is(err, types.ErrGeoDatabaseUnavailable))
}
