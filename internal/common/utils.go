package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SplitCity splits a "City, Country" query into its parts. Country may be empty.
func SplitCity(query string) (city, country string) {
	city, country, _ = strings.Cut(query, ",")
	return strings.TrimSpace(city), strings.TrimSpace(country)
}
