package pipeline

import (
	"encoding/json"
	"sort"
)

// Definition is one delivery pipeline kind. The set of kinds is fixed at
// deployment time.
type Definition interface {
	// Directory is the top-level monorepo directory the pipeline builds.
	Directory() string
	// Name is the pipeline identifier registered with the execution service.
	Name() string
}

// Demo builds the demo application.
type Demo struct{}

func (Demo) Directory() string { return "demo" }
func (Demo) Name() string      { return "codepipeline-demo-main" }

// Hotsite publishes the static hotsite.
type Hotsite struct{}

func (Hotsite) Directory() string { return "hotsite" }
func (Hotsite) Name() string      { return "codepipeline-hotsite-main" }

// Catalog is a registry of definitions keyed by directory.
type Catalog map[string]Definition

// DefaultCatalog returns the pipelines shipped with the monorepo.
func DefaultCatalog() Catalog {
	return NewCatalog(Demo{}, Hotsite{})
}

// NewCatalog builds a catalog. Later definitions replace earlier ones for the
// same directory.
func NewCatalog(defs ...Definition) Catalog {
	c := make(Catalog, len(defs))
	for _, d := range defs {
		c[d.Directory()] = d
	}
	return c
}

// Map returns the directory to pipeline-name mapping for the catalog.
func (c Catalog) Map() map[string]string {
	m := make(map[string]string, len(c))
	for dir, d := range c {
		m[dir] = d.Name()
	}
	return m
}

// MapJSON renders Map as the content of a monorepo-<branch>.json file.
func (c Catalog) MapJSON() ([]byte, error) {
	return json.MarshalIndent(c.Map(), "", "  ")
}

// Has reports whether a pipeline with the given name is registered.
func (c Catalog) Has(name string) bool {
	for _, d := range c {
		if d.Name() == name {
			return true
		}
	}
	return false
}

// Names returns the registered pipeline names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, d := range c {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}
