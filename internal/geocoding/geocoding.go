// Package geocoding defines the geocoder contract the resolution engine
// consumes, plus the Google Maps implementation and an optional Redis
// read-through cache. The engine never geocodes per jurisdiction — one
// coordinate per address is reused across every boundary test.
package geocoding

import (
	"fmt"
	"strings"
)

// Address is a constituent mailing address. Two addresses are equal only
// by exact field equality; this engine performs no normalization (the
// geocoder's concern, if anyone's).
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// Query renders the address as a single geocoder query string.
func (a Address) Query() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.Region, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Coordinate is a geocoded (latitude, longitude) pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Error reasons, used by callers deciding whether to surface or retry.
const (
	ReasonZeroResults = "zero_results"
	ReasonUpstream    = "upstream"
	ReasonTimeout     = "timeout"
)

// Error is an address-level geocoding failure. It aborts resolution for
// that address only and is retryable by re-submitting the change event.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoding failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("geocoding failed (%s)", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
