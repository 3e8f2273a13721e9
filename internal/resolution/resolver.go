// Package resolution runs one address against every registered
// jurisdiction and produces the membership mapping.
package resolution

import (
	"context"
	"errors"
	"log"

	"github.com/CivicBridge/CB-Districting/internal/boundary"
	"github.com/CivicBridge/CB-Districting/internal/geocoding"
	"github.com/CivicBridge/CB-Districting/internal/geometry"
	"github.com/CivicBridge/CB-Districting/internal/metrics"
	"github.com/CivicBridge/CB-Districting/internal/registry"
)

// Assignment is the outcome of resolving one address against one
// jurisdiction the address belongs to. DistrictID is empty for an
// undivided jurisdiction. Assignments are ephemeral — computed fresh on
// every resolution, never persisted as-is.
type Assignment struct {
	JurisdictionID   string `json:"jurisdiction_id"`
	JurisdictionName string `json:"jurisdiction_name"`
	DistrictID       string `json:"district_id,omitempty"`
}

// Result maps jurisdiction id to assignment for every jurisdiction
// containing the address. Jurisdictions the address falls outside are
// simply absent. Unresolved carries jurisdiction-local failures (boundary
// load, missing subdivision key) that kept a jurisdiction from being
// tested; those are operator problems, not membership facts.
type Result struct {
	Coordinate  geocoding.Coordinate  `json:"coordinate"`
	Memberships map[string]Assignment `json:"memberships"`
	Unresolved  map[string]error      `json:"-"`
}

// Resolver wires the geocoder, registry, and boundary store together.
type Resolver struct {
	Geocoder   geocoding.Geocoder
	Registry   *registry.Registry
	Boundaries *boundary.Store
	Metrics    metrics.Collector
}

// Resolve geocodes the address once, then tests the coordinate against
// every registered jurisdiction in order. A geocoding failure aborts the
// whole resolution — no partial results, since every jurisdiction test
// needs the coordinate. Jurisdiction-local failures are recorded in
// Result.Unresolved and never abort the remaining jurisdictions.
//
// For fixed boundary data the mapping is idempotent: resolving the same
// address twice yields the same memberships.
func (r *Resolver) Resolve(ctx context.Context, addr geocoding.Address) (*Result, error) {
	coord, err := r.Geocoder.Geocode(ctx, addr)
	if err != nil {
		var geoErr *geocoding.Error
		if errors.As(err, &geoErr) {
			r.Metrics.RecordGeocodeFailure(geoErr.Reason)
		} else {
			r.Metrics.RecordGeocodeFailure(geocoding.ReasonUpstream)
		}
		return nil, err
	}

	result := &Result{
		Coordinate:  coord,
		Memberships: make(map[string]Assignment),
		Unresolved:  make(map[string]error),
	}

	for _, j := range r.Registry.List() {
		assignment, err := r.resolveJurisdiction(ctx, j, coord)
		if err != nil {
			log.Printf("[resolution] jurisdiction %s unresolved: %v", j.ID, err)
			result.Unresolved[j.ID] = err
			continue
		}
		if assignment != nil {
			result.Memberships[j.ID] = *assignment
		}
	}

	r.Metrics.RecordResolveSuccess()
	return result, nil
}

// resolveJurisdiction returns nil, nil when the coordinate is outside the
// jurisdiction entirely.
func (r *Resolver) resolveJurisdiction(ctx context.Context, j registry.Jurisdiction, coord geocoding.Coordinate) (*Assignment, error) {
	fc, err := r.Boundaries.Load(ctx, j)
	if err != nil {
		r.Metrics.RecordBoundaryLoadFailure(j.ID)
		return nil, err
	}

	feature, ok := fc.Find(coord.Lat, coord.Lng)
	if !ok {
		return nil, nil
	}

	assignment := &Assignment{JurisdictionID: j.ID, JurisdictionName: j.Name}

	switch d := j.Districting.(type) {
	case registry.Subdivided:
		rawKey, err := geometry.SubdivisionKey(feature, d.KeyCandidates)
		if err != nil {
			r.Metrics.RecordSubdivisionKeyFailure(j.ID)
			return nil, err
		}
		if mapped, ok := d.KeyMap[rawKey]; ok {
			assignment.DistrictID = mapped
		} else {
			assignment.DistrictID = rawKey
		}
	case registry.Undivided:
		// Membership is binary; no district to resolve.
	}

	return assignment, nil
}
