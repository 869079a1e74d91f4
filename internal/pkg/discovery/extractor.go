// Package discovery pulls component addresses out of the free-form text that
// the discovery command prints.
package discovery

import (
	"regexp"
	"strings"
)

// LookbackLines is how many lines above the marker line are searched when the
// marker line itself carries no address.
const LookbackLines = 5

// ipv4Pattern is a syntactic match only, octets are not range checked.
var ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

type Extractor interface {
	ExtractAddress(output, marker string) (string, bool)
}

// MarkerExtractor finds the first line containing the marker and returns the
// leftmost IPv4-shaped token on it, or on the nearest of the LookbackLines
// lines above it. Later marker lines are ignored.
type MarkerExtractor struct{}

func NewMarkerExtractor() *MarkerExtractor {
	return &MarkerExtractor{}
}

func (MarkerExtractor) ExtractAddress(output, marker string) (string, bool) {
	lines := strings.Split(output, "\n")

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}

		if addr := ipv4Pattern.FindString(line); addr != "" {
			return addr, true
		}
		for j := i - 1; j >= 0 && j >= i-LookbackLines; j-- {
			if addr := ipv4Pattern.FindString(lines[j]); addr != "" {
				return addr, true
			}
		}
		return "", false
	}

	return "", false
}
