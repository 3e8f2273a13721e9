// Package geometry parses GeoJSON boundary files and answers
// point-in-polygon containment queries. Everything here is pure and
// CPU-bound; no I/O, no shared state.
package geometry

import (
	"encoding/json"
	"fmt"
)

type point struct {
	lat float64
	lng float64
}

// bbox is minLng, minLat, maxLng, maxLat — a cheap pre-filter before the
// per-ring containment test.
type bbox [4]float64

// polygon follows the GeoJSON ring convention: the first ring is the
// outer boundary, every subsequent ring is a hole.
type polygon struct {
	rings [][]point
	box   bbox
}

// Feature is one named region in a boundary file: a district, a ward, or
// the jurisdiction's overall extent. Geometry is a Polygon or
// MultiPolygon; Properties carries whatever metadata the upstream source
// attached.
type Feature struct {
	Properties map[string]any

	polys []polygon
}

// FeatureCollection is an immutable set of Features in file order.
type FeatureCollection struct {
	Features []Feature
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   rawGeometry    `json:"geometry"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection containing
// Polygon and MultiPolygon features. Malformed rings (open, or fewer than
// four positions) fail fast: a boundary that parses loosely would match
// addresses incorrectly, which is far worse than refusing to load.
func ParseFeatureCollection(data []byte) (*FeatureCollection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding boundary file: %w", err)
	}
	if raw.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", raw.Type)
	}
	if len(raw.Features) == 0 {
		return nil, fmt.Errorf("boundary file contains no features")
	}

	fc := &FeatureCollection{Features: make([]Feature, 0, len(raw.Features))}
	for i, rf := range raw.Features {
		polys, err := parseGeometry(rf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		fc.Features = append(fc.Features, Feature{
			Properties: rf.Properties,
			polys:      polys,
		})
	}
	return fc, nil
}

func parseGeometry(g rawGeometry) ([]polygon, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decoding Polygon coordinates: %w", err)
		}
		p, err := buildPolygon(coords)
		if err != nil {
			return nil, err
		}
		return []polygon{p}, nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decoding MultiPolygon coordinates: %w", err)
		}
		if len(coords) == 0 {
			return nil, fmt.Errorf("MultiPolygon has no member polygons")
		}
		polys := make([]polygon, 0, len(coords))
		for i, pc := range coords {
			p, err := buildPolygon(pc)
			if err != nil {
				return nil, fmt.Errorf("member polygon %d: %w", i, err)
			}
			polys = append(polys, p)
		}
		return polys, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func buildPolygon(coords [][][]float64) (polygon, error) {
	if len(coords) == 0 {
		return polygon{}, fmt.Errorf("polygon has no rings")
	}
	p := polygon{rings: make([][]point, 0, len(coords))}
	for ri, rawRing := range coords {
		ring, err := buildRing(rawRing)
		if err != nil {
			return polygon{}, fmt.Errorf("ring %d: %w", ri, err)
		}
		p.rings = append(p.rings, ring)
	}
	p.box = ringBounds(p.rings[0])
	return p, nil
}

func buildRing(raw [][]float64) ([]point, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("ring has %d positions, need at least 4", len(raw))
	}
	ring := make([]point, 0, len(raw))
	for i, pos := range raw {
		if len(pos) < 2 {
			return nil, fmt.Errorf("position %d has %d coordinates, need at least 2", i, len(pos))
		}
		// GeoJSON positions are [longitude, latitude].
		ring = append(ring, point{lng: pos[0], lat: pos[1]})
	}
	first, last := ring[0], ring[len(ring)-1]
	if first.lat != last.lat || first.lng != last.lng {
		return nil, fmt.Errorf("ring is not closed (first %v, last %v)", first, last)
	}
	return ring, nil
}

func ringBounds(ring []point) bbox {
	b := bbox{ring[0].lng, ring[0].lat, ring[0].lng, ring[0].lat}
	for _, pt := range ring[1:] {
		if pt.lng < b[0] {
			b[0] = pt.lng
		}
		if pt.lat < b[1] {
			b[1] = pt.lat
		}
		if pt.lng > b[2] {
			b[2] = pt.lng
		}
		if pt.lat > b[3] {
			b[3] = pt.lat
		}
	}
	return b
}
