package boundary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/CivicBridge/CB-Districting/internal/registry"
)

const squareDoc = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"properties": {"DISTRICT": "1"},
		"geometry": {"type": "Polygon",
			"coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
	}]
}`

// countingSource counts fetches so tests can assert memoization.
type countingSource struct {
	inner   Source
	fetches atomic.Int64
}

func (s *countingSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	s.fetches.Add(1)
	return s.inner.Fetch(ctx, path)
}

func TestStore_Memoizes(t *testing.T) {
	src := &countingSource{inner: MapSource{"springfield.geojson": []byte(squareDoc)}}
	store := NewStore(src)
	j := registry.Jurisdiction{ID: "springfield", BoundarySource: "springfield.geojson"}

	first, err := store.Load(context.Background(), j)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := store.Load(context.Background(), j)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the same cached collection on the second load")
	}
	if n := src.fetches.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestStore_ConcurrentFirstLoad(t *testing.T) {
	src := &countingSource{inner: MapSource{"springfield.geojson": []byte(squareDoc)}}
	store := NewStore(src)
	j := registry.Jurisdiction{ID: "springfield", BoundarySource: "springfield.geojson"}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fc, err := store.Load(context.Background(), j)
			if err != nil {
				t.Errorf("concurrent Load failed: %v", err)
				return
			}
			results[i] = fc
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("concurrent loaders disagree on the cached collection")
		}
	}
}

func TestStore_MissingResource(t *testing.T) {
	store := NewStore(MapSource{})
	j := registry.Jurisdiction{ID: "ghost-town", BoundarySource: "missing.geojson"}

	_, err := store.Load(context.Background(), j)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.JurisdictionID != "ghost-town" {
		t.Errorf("expected error to carry the jurisdiction id, got %q", loadErr.JurisdictionID)
	}
}

func TestStore_MalformedNotCached(t *testing.T) {
	src := MapSource{"bad.geojson": []byte(`{"type":"FeatureCollection","features":[]}`)}
	store := NewStore(src)
	j := registry.Jurisdiction{ID: "bad", BoundarySource: "bad.geojson"}

	if _, err := store.Load(context.Background(), j); err == nil {
		t.Fatal("expected malformed boundary to fail")
	}

	// A later deploy fixes the file; the store must pick it up without a
	// poisoned cache entry in the way.
	src["bad.geojson"] = []byte(squareDoc)
	if _, err := store.Load(context.Background(), j); err != nil {
		t.Fatalf("expected fixed boundary to load, got %v", err)
	}
}
