package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ErrNotFound is returned by Get for an unknown jurisdiction id. Asking
// for a jurisdiction that was never configured is a programmer error, not
// something that happens during normal resolution.
var ErrNotFound = errors.New("jurisdiction not found")

// Registry is the read-only set of configured jurisdictions. It is built
// once at startup from a YAML file; changing jurisdiction configuration
// requires a redeploy. Keeping mutation out of the runtime keeps registry
// state out of the failure surface entirely.
type Registry struct {
	ordered []Jurisdiction
	byID    map[string]Jurisdiction
}

// yamlFile mirrors the on-disk configuration shape before validation.
type yamlFile struct {
	Jurisdictions []yamlJurisdiction `yaml:"jurisdictions"`
}

type yamlJurisdiction struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	AdminOwnerID   string            `yaml:"admin_owner_id"`
	BoundarySource string            `yaml:"boundary_source"`
	Subdivided     bool              `yaml:"subdivided"`
	KeyCandidates  []string          `yaml:"key_candidates"`
	KeyMap         map[string]string `yaml:"key_map"`
}

// Load reads and validates the jurisdiction configuration file. Any
// validation failure is fatal to startup: a registry that half-loads
// would silently resolve against the wrong jurisdiction set.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jurisdiction config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw YAML. Split out of Load so tests can
// feed configuration without touching the filesystem.
func Parse(data []byte) (*Registry, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing jurisdiction config: %w", err)
	}
	if len(file.Jurisdictions) == 0 {
		return nil, errors.New("jurisdiction config declares no jurisdictions")
	}

	reg := &Registry{byID: make(map[string]Jurisdiction, len(file.Jurisdictions))}
	for i, y := range file.Jurisdictions {
		j, err := y.validate()
		if err != nil {
			return nil, fmt.Errorf("jurisdiction %d (%q): %w", i, y.ID, err)
		}
		if _, dup := reg.byID[j.ID]; dup {
			return nil, fmt.Errorf("duplicate jurisdiction id %q", j.ID)
		}
		reg.ordered = append(reg.ordered, j)
		reg.byID[j.ID] = j
	}
	return reg, nil
}

func (y yamlJurisdiction) validate() (Jurisdiction, error) {
	if y.ID == "" {
		return Jurisdiction{}, errors.New("missing id")
	}
	if y.BoundarySource == "" {
		return Jurisdiction{}, errors.New("missing boundary_source")
	}

	var districting Districting
	if y.Subdivided {
		if len(y.KeyCandidates) == 0 {
			return Jurisdiction{}, errors.New("subdivided jurisdiction must list at least one key candidate")
		}
		districting = Subdivided{KeyCandidates: y.KeyCandidates, KeyMap: y.KeyMap}
	} else {
		districting = Undivided{}
	}

	name := y.Name
	if name == "" {
		name = y.ID
	}
	return Jurisdiction{
		ID:             y.ID,
		Name:           name,
		AdminOwnerID:   y.AdminOwnerID,
		BoundarySource: y.BoundarySource,
		Districting:    districting,
	}, nil
}

// List returns every jurisdiction in configuration order.
func (r *Registry) List() []Jurisdiction {
	return r.ordered
}

// Get returns the jurisdiction with the given id, or ErrNotFound.
func (r *Registry) Get(id string) (Jurisdiction, error) {
	j, ok := r.byID[id]
	if !ok {
		return Jurisdiction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return j, nil
}
