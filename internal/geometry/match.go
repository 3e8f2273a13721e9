package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Find returns the first feature, in stored order, whose geometry
// contains the coordinate. Features within one well-formed jurisdiction
// do not overlap; if boundary data accidentally overlaps, first-in-file
// wins. That order dependence is a deliberate tie-break policy, kept
// stable so repeated resolutions agree.
func (fc *FeatureCollection) Find(lat, lng float64) (*Feature, bool) {
	pt := point{lat: lat, lng: lng}
	for i := range fc.Features {
		f := &fc.Features[i]
		for _, p := range f.polys {
			if p.contains(pt) {
				return f, true
			}
		}
	}
	return nil, false
}

// NoKeyError means a matched feature carries none of the configured
// subdivision property keys. This is a boundary-data defect for the
// jurisdiction, not a fact about the address — callers must keep it
// distinct from a plain no-match so operators fix the data instead of
// concluding the constituent moved away.
type NoKeyError struct {
	Candidates []string
}

func (e *NoKeyError) Error() string {
	return fmt.Sprintf("matched feature has none of the subdivision keys %s",
		strings.Join(e.Candidates, ", "))
}

// SubdivisionKey probes the feature's properties for each candidate key
// in order and returns the first present non-empty value. Numeric
// property values are common in upstream boundary files ("DISTRICT": 3)
// and are rendered as their decimal string.
func SubdivisionKey(f *Feature, candidates []string) (string, error) {
	for _, key := range candidates {
		v, ok := f.Properties[key]
		if !ok {
			continue
		}
		if s := propertyString(v); s != "" {
			return s, nil
		}
	}
	return "", &NoKeyError{Candidates: candidates}
}

func propertyString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}
