package resolution

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/CivicBridge/CB-Districting/internal/boundary"
	"github.com/CivicBridge/CB-Districting/internal/geocoding"
	"github.com/CivicBridge/CB-Districting/internal/geometry"
	"github.com/CivicBridge/CB-Districting/internal/metrics"
	"github.com/CivicBridge/CB-Districting/internal/registry"
)

// stubGeocoder returns a fixed coordinate (or error) and counts calls.
type stubGeocoder struct {
	coord geocoding.Coordinate
	err   error
	calls int
}

func (s *stubGeocoder) Geocode(ctx context.Context, addr geocoding.Address) (geocoding.Coordinate, error) {
	s.calls++
	if s.err != nil {
		return geocoding.Coordinate{}, s.err
	}
	return s.coord, nil
}

const councilDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"DISTRICT": "1"},
		 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
		{"type": "Feature", "properties": {"COUNCIL_DIST": "2"},
		 "geometry": {"type": "Polygon", "coordinates": [[[10,0],[20,0],[20,10],[10,10],[10,0]]]}}
	]
}`

const waterDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {},
		 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[40,0],[40,40],[0,40],[0,0]]]}}
	]
}`

const noKeyDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"IRRELEVANT": "x"},
		 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[40,0],[40,40],[0,40],[0,0]]]}}
	]
}`

func testRegistry(t *testing.T, yaml string) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("registry.Parse failed: %v", err)
	}
	return reg
}

const twoJurisdictions = `
jurisdictions:
  - id: council
    name: City Council
    boundary_source: council.geojson
    subdivided: true
    key_candidates: [DISTRICT, COUNCIL_DIST]
    key_map:
      "1": d-01
  - id: water
    name: Water District
    boundary_source: water.geojson
`

func newResolver(t *testing.T, geocoder geocoding.Geocoder, reg *registry.Registry, docs boundary.MapSource) *Resolver {
	t.Helper()
	return &Resolver{
		Geocoder:   geocoder,
		Registry:   reg,
		Boundaries: boundary.NewStore(docs),
		Metrics:    metrics.Noop{},
	}
}

func TestResolve_MembershipMapping(t *testing.T) {
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 5}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		"council.geojson": []byte(councilDoc),
		"water.geojson":   []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "12 Main St"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if geocoder.calls != 1 {
		t.Errorf("expected exactly one geocode call per address, got %d", geocoder.calls)
	}

	want := map[string]Assignment{
		"council": {JurisdictionID: "council", JurisdictionName: "City Council", DistrictID: "d-01"},
		"water":   {JurisdictionID: "water", JurisdictionName: "Water District"},
	}
	if !reflect.DeepEqual(result.Memberships, want) {
		t.Errorf("memberships mismatch:\n got %+v\nwant %+v", result.Memberships, want)
	}
}

func TestResolve_UnmappedKeyPassesThrough(t *testing.T) {
	// (5,15) lands in the second council feature, COUNCIL_DIST "2",
	// which has no key_map entry.
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 15}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		"council.geojson": []byte(councilDoc),
		"water.geojson":   []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "90 East Ave"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := result.Memberships["council"].DistrictID; got != "2" {
		t.Errorf("expected raw key passthrough %q, got %q", "2", got)
	}
}

func TestResolve_OutsideAllJurisdictions(t *testing.T) {
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 99, Lng: 99}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		"council.geojson": []byte(councilDoc),
		"water.geojson":   []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "Far Away"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Memberships) != 0 {
		t.Errorf("expected no memberships, got %+v", result.Memberships)
	}
	if len(result.Unresolved) != 0 {
		t.Errorf("a clean no-match is not an unresolved jurisdiction: %+v", result.Unresolved)
	}
}

func TestResolve_GeocodeFailureAbortsWholeAddress(t *testing.T) {
	geocoder := &stubGeocoder{err: &geocoding.Error{Reason: geocoding.ReasonZeroResults}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		"council.geojson": []byte(councilDoc),
		"water.geojson":   []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "???"})
	if err == nil {
		t.Fatal("expected geocode failure to abort the resolution")
	}
	if result != nil {
		t.Errorf("expected no partial results on geocode failure, got %+v", result)
	}
	var geoErr *geocoding.Error
	if !errors.As(err, &geoErr) {
		t.Errorf("expected the geocoding error to propagate, got %v", err)
	}
}

func TestResolve_BoundaryFailureIsolatedToJurisdiction(t *testing.T) {
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 5}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		// council.geojson is missing; water loads fine.
		"water.geojson": []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "12 Main St"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if _, ok := result.Memberships["water"]; !ok {
		t.Error("expected water membership despite council boundary failure")
	}
	var loadErr *boundary.LoadError
	if !errors.As(result.Unresolved["council"], &loadErr) {
		t.Errorf("expected council recorded unresolved with a LoadError, got %v",
			result.Unresolved["council"])
	}
}

func TestResolve_MissingSubdivisionKeyIsolated(t *testing.T) {
	cfg := `
jurisdictions:
  - id: broken
    boundary_source: broken.geojson
    subdivided: true
    key_candidates: [DISTRICT]
  - id: water
    name: Water District
    boundary_source: water.geojson
`
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 5}}
	r := newResolver(t, geocoder, testRegistry(t, cfg), boundary.MapSource{
		"broken.geojson": []byte(noKeyDoc),
		"water.geojson":  []byte(waterDoc),
	})

	result, err := r.Resolve(context.Background(), geocoding.Address{Line1: "12 Main St"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	var noKey *geometry.NoKeyError
	if !errors.As(result.Unresolved["broken"], &noKey) {
		t.Errorf("expected NoKeyError for broken jurisdiction, got %v", result.Unresolved["broken"])
	}
	if _, ok := result.Memberships["broken"]; ok {
		t.Error("a key-less match must not appear as a membership")
	}
	if _, ok := result.Memberships["water"]; !ok {
		t.Error("expected water membership despite broken sibling")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	geocoder := &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 5}}
	r := newResolver(t, geocoder, testRegistry(t, twoJurisdictions), boundary.MapSource{
		"council.geojson": []byte(councilDoc),
		"water.geojson":   []byte(waterDoc),
	})

	addr := geocoding.Address{Line1: "12 Main St", City: "Springfield"}
	first, err := r.Resolve(context.Background(), addr)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := r.Resolve(context.Background(), addr)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(first.Memberships, second.Memberships) {
		t.Errorf("resolution not idempotent:\nfirst %+v\nsecond %+v",
			first.Memberships, second.Memberships)
	}
}

func ExampleResolver_Resolve() {
	reg, _ := registry.Parse([]byte(twoJurisdictions))
	r := &Resolver{
		Geocoder: &stubGeocoder{coord: geocoding.Coordinate{Lat: 5, Lng: 5}},
		Registry: reg,
		Boundaries: boundary.NewStore(boundary.MapSource{
			"council.geojson": []byte(councilDoc),
			"water.geojson":   []byte(waterDoc),
		}),
		Metrics: metrics.Noop{},
	}
	result, _ := r.Resolve(context.Background(), geocoding.Address{Line1: "12 Main St"})
	fmt.Println(result.Memberships["council"].DistrictID)
	// Output: d-01
}
