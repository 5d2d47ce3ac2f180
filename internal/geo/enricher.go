package geo

import (
	"authviz/internal/types"
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Lookup maps an IP address to an ISO country code
type Lookup interface {
	Country(ip net.IP) (string, bool)
	Close() error
}

// Resolver turns hostnames into addresses; *net.Resolver satisfies it
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Options configures an Enricher
type Options struct {
	Overrides        map[string]string // address or CIDR -> country
	ResolveHostnames bool
	ResolveTimeout   time.Duration
	Resolver         Resolver
	Logger           *zap.Logger
}

type cidrOverride struct {
	network *net.IPNet
	country string
}

// Enricher annotates source addresses with a country. It memoizes results
// per address and is not safe for concurrent use.
type Enricher struct {
	lookup Lookup // nil means overrides only

	exact map[string]string
	cidrs []cidrOverride

	resolveHosts bool
	timeout      time.Duration
	resolver     Resolver

	cache  map[string]string
	logger *zap.Logger
}

// NewEnricher wraps a lookup with overrides and optional hostname resolution
func NewEnricher(lookup Lookup, opts Options) (*Enricher, error) {
	e := &Enricher{
		lookup:       lookup,
		exact:        make(map[string]string),
		resolveHosts: opts.ResolveHostnames,
		timeout:      opts.ResolveTimeout,
		resolver:     opts.Resolver,
		cache:        make(map[string]string),
		logger:       opts.Logger,
	}
	if e.resolver == nil {
		e.resolver = net.DefaultResolver
	}
	if e.timeout <= 0 {
		e.timeout = 2 * time.Second
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	for key, country := range opts.Overrides {
		country = strings.TrimSpace(country)
		if country == "" {
			return nil, fmt.Errorf("override %q has an empty country", key)
		}
		if strings.Contains(key, "/") {
			_, network, err := net.ParseCIDR(key)
			if err != nil {
				return nil, fmt.Errorf("invalid override network %q: %w", key, err)
			}
			e.cidrs = append(e.cidrs, cidrOverride{network: network, country: country})
			continue
		}
		ip := net.ParseIP(key)
		if ip == nil {
			return nil, fmt.Errorf("invalid override address %q", key)
		}
		e.exact[ip.String()] = country
	}

	// Most specific network wins
	sortOverrides(e.cidrs)

	return e, nil
}

// Resolve returns the country for a logged source address, or
// types.UnknownCountry when it cannot be determined. It never returns "".
func (e *Enricher) Resolve(address string) string {
	if country, ok := e.cache[address]; ok {
		return country
	}

	country := e.resolve(address)
	if country == "" {
		country = types.UnknownCountry
	}
	e.cache[address] = country
	return country
}

func (e *Enricher) resolve(address string) string {
	if ip := parseAddress(address); ip != nil {
		return e.country(ip)
	}

	if !e.resolveHosts {
		e.logger.Debug("address is not an IP, skipping lookup", zap.String("address", address))
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	addrs, err := e.resolver.LookupIPAddr(ctx, address)
	if err != nil {
		e.logger.Debug("hostname resolution failed", zap.String("host", address), zap.Error(err))
		return ""
	}
	for _, a := range addrs {
		if country := e.country(a.IP); country != "" {
			return country
		}
	}
	return ""
}

func (e *Enricher) country(ip net.IP) string {
	if country, ok := e.exact[ip.String()]; ok {
		return country
	}
	for _, o := range e.cidrs {
		if o.network.Contains(ip) {
			return o.country
		}
	}
	if e.lookup == nil {
		return ""
	}
	if country, ok := e.lookup.Country(ip); ok {
		return country
	}
	return ""
}

// Close releases the underlying database
func (e *Enricher) Close() error {
	if e.lookup == nil {
		return nil
	}
	return e.lookup.Close()
}

// parseAddress accepts plain addresses as well as bracketed or zoned IPv6
func parseAddress(address string) net.IP {
	address = strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
	if i := strings.IndexByte(address, '%'); i >= 0 {
		address = address[:i]
	}
	return net.ParseIP(address)
}

func sortOverrides(cidrs []cidrOverride) {
	sort.Slice(cidrs, func(i, j int) bool {
		pi, pj := prefixLen(cidrs[i].network), prefixLen(cidrs[j].network)
		if pi != pj {
			return pi > pj
		}
		return cidrs[i].network.String() < cidrs[j].network.String()
	})
}

func prefixLen(n *net.IPNet) int {
	ones, _ := n.Mask.Size()
	return ones
}
