package boundary

import (
	"context"
	"fmt"
	"sync"

	"github.com/CivicBridge/CB-Districting/internal/geometry"
	"github.com/CivicBridge/CB-Districting/internal/registry"
)

// LoadError wraps a failure to fetch or parse one jurisdiction's
// boundary. It is jurisdiction-local: resolution for other jurisdictions
// carries on.
type LoadError struct {
	JurisdictionID string
	Err            error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading boundary for jurisdiction %s: %v", e.JurisdictionID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Store memoizes parsed boundary collections per jurisdiction id for the
// life of the process. The cache is write-once per key: concurrent first
// callers for the same jurisdiction may each load once, and the first
// stored result wins. That duplicate load is acceptable — it happens at
// most once per jurisdiction per process — so no lock beyond the atomic
// insert is needed. Load failures are not cached; a transient fetch error
// should not poison the jurisdiction until restart.
type Store struct {
	source Source
	cache  sync.Map // jurisdiction id -> *geometry.FeatureCollection
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Load returns the parsed boundary collection for a jurisdiction, fetching
// and parsing it on first use. Errors are returned as *LoadError.
func (s *Store) Load(ctx context.Context, j registry.Jurisdiction) (*geometry.FeatureCollection, error) {
	if cached, ok := s.cache.Load(j.ID); ok {
		return cached.(*geometry.FeatureCollection), nil
	}

	data, err := s.source.Fetch(ctx, j.BoundarySource)
	if err != nil {
		return nil, &LoadError{JurisdictionID: j.ID, Err: err}
	}
	fc, err := geometry.ParseFeatureCollection(data)
	if err != nil {
		return nil, &LoadError{JurisdictionID: j.ID, Err: err}
	}

	actual, _ := s.cache.LoadOrStore(j.ID, fc)
	return actual.(*geometry.FeatureCollection), nil
}
