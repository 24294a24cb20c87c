package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelSpec describes one model the gateway is allowed to route to.
type ModelSpec struct {
	Name          string `yaml:"name" json:"name"`
	Provider      string `yaml:"provider,omitempty" json:"provider,omitempty"`
	ContextTokens int    `yaml:"context_tokens,omitempty" json:"context_tokens,omitempty"`
	Default       bool   `yaml:"default,omitempty" json:"default,omitempty"`
}

// Catalog is the set of allowed model identifiers, loaded once at boot and
// immutable afterwards.
type Catalog struct {
	Models []ModelSpec `yaml:"models" json:"models"`
}

// LoadCatalog reads a YAML model catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(c.Models) == 0 {
		return nil, fmt.Errorf("catalog %s lists no models", path)
	}
	for _, m := range c.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("catalog %s contains a model without a name", path)
		}
	}
	return &c, nil
}

// CatalogFromNames builds a catalog from a plain identifier list. The
// first entry is the default.
func CatalogFromNames(names []string) *Catalog {
	c := &Catalog{}
	for i, n := range names {
		c.Models = append(c.Models, ModelSpec{Name: n, Default: i == 0})
	}
	return c
}

func (c *Catalog) Has(name string) bool {
	for _, m := range c.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Default returns the catalog's default model, falling back to the first
// entry.
func (c *Catalog) Default() string {
	for _, m := range c.Models {
		if m.Default {
			return m.Name
		}
	}
	if len(c.Models) > 0 {
		return c.Models[0].Name
	}
	return ""
}
