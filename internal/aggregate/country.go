package aggregate

import "authviz/internal/types"

// CountryCount is one bar of the per-country chart
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// SourceCount is one row of the top-sources table
type SourceCount struct {
	Address string `json:"address"`
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// ByCountry counts attempts per country, most attempts first. Countries with
// the same count are ordered by code so output is deterministic.
func ByCountry(attempts []types.LoginAttempt) []CountryCount {
	counter := NewCounter()
	for _, a := range attempts {
		counter.Add(a.Country)
	}

	sorted := counter.Sorted()
	out := make([]CountryCount, len(sorted))
	for i, e := range sorted {
		out[i] = CountryCount{Country: e.Key, Count: e.Count}
	}
	return out
}

// TopSources returns the n most active source addresses, same ordering rule
// as ByCountry. n <= 0 returns all of them.
func TopSources(attempts []types.LoginAttempt, n int) []SourceCount {
	counter := NewCounter()
	countries := make(map[string]string)
	for _, a := range attempts {
		counter.Add(a.SourceAddress)
		countries[a.SourceAddress] = a.Country
	}

	sorted := counter.Sorted()
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]SourceCount, len(sorted))
	for i, e := range sorted {
		out[i] = SourceCount{Address: e.Key, Country: countries[e.Key], Count: e.Count}
	}
	return out
}
