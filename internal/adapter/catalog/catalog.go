// Package catalog resolves plant and soil profiles from a YAML catalog layered
// over built-in FAO-56 defaults.
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// Catalog is an immutable set of plant and soil profiles.
type Catalog struct {
	plants map[string]domain.PlantProfile
	soils  map[domain.SoilType]domain.SoilProfile
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		plants: make(map[string]domain.PlantProfile, len(builtinPlants)),
		soils:  make(map[domain.SoilType]domain.SoilProfile, len(builtinSoils)),
	}
	for _, p := range builtinPlants {
		c.plants[key(p.Name)] = p
	}
	for _, s := range builtinSoils {
		c.soils[s.Type] = s
	}
	return c
}

// Load reads a YAML catalog and layers it over the built-in one. Entries in
// the file replace built-ins with the same plant name or soil type. An empty
// path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("catalog %s: unsupported extension", path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	for name, s := range doc.Soils {
		soil, err := s.profile(name)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		c.soils[soil.Type] = soil
	}
	for i, p := range doc.Plants {
		plant, err := p.profile()
		if err != nil {
			return nil, fmt.Errorf("catalog %s: plants[%d]: %w", path, i, err)
		}
		c.plants[key(plant.Name)] = plant
	}
	if err := c.checkIDs(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// checkIDs reports two plants of the layered catalog sharing an ID.
func (c *Catalog) checkIDs() error {
	plants := c.Plants()
	sort.SliceStable(plants, func(i, j int) bool {
		if plants[i].ID != plants[j].ID {
			return plants[i].ID < plants[j].ID
		}
		return key(plants[i].Name) < key(plants[j].Name)
	})
	for i := 1; i < len(plants); i++ {
		if plants[i].ID == plants[i-1].ID {
			return fmt.Errorf("plant id %d used by both %q and %q", plants[i].ID, plants[i-1].Name, plants[i].Name)
		}
	}
	return nil
}

// LookupPlant returns the profile for a plant name, ignoring case.
func (c *Catalog) LookupPlant(name string) (domain.PlantProfile, error) {
	p, ok := c.plants[key(name)]
	if !ok {
		return domain.PlantProfile{}, fmt.Errorf("%w %q", domain.ErrMissingPlantProfile, name)
	}
	return p, nil
}

// LookupSoil returns the profile for a soil type.
func (c *Catalog) LookupSoil(t domain.SoilType) (domain.SoilProfile, error) {
	s, ok := c.soils[t]
	if !ok {
		return domain.SoilProfile{}, fmt.Errorf("%w %q", domain.ErrUnknownSoilType, t)
	}
	return s, nil
}

// Plants returns every plant profile ordered by ID.
func (c *Catalog) Plants() []domain.PlantProfile {
	out := make([]domain.PlantProfile, 0, len(c.plants))
	for _, p := range c.plants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Roster returns every plant name ordered by ID, used when no roster is
// configured.
func (c *Catalog) Roster() []string {
	plants := c.Plants()
	names := make([]string, len(plants))
	for i, p := range plants {
		names[i] = p.Name
	}
	return names
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
