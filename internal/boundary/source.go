// Package boundary loads jurisdiction boundary files and caches the
// parsed geometry for the life of the process. Boundary data only changes
// on redeploy, so a restart is the cache invalidation strategy.
package boundary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source retrieves a raw boundary resource by path. The engine treats the
// bytes as untyped GeoJSON until parsed.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FileSource reads boundary files from a local directory.
type FileSource struct {
	Dir string
}

func (s FileSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	full := filepath.Join(s.Dir, filepath.Clean("/"+path))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading boundary file %s: %w", full, err)
	}
	return data, nil
}

// MapSource serves boundary documents from memory. Test helper.
type MapSource map[string][]byte

func (s MapSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, ok := s[strings.TrimPrefix(path, "/")]
	if !ok {
		return nil, fmt.Errorf("no boundary resource at %s", path)
	}
	return data, nil
}
