// Package authors holds the catalog of writing styles subscribers can pick.
package authors

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
	"plotlines.app/pkg/validation"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Author is one writing style the engine can imitate
type Author struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is an immutable, key-indexed author list
type Catalog struct {
	authors []Author
	byKey   map[string]Author
}

type catalogFile struct {
	Authors []Author `yaml:"authors"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a YAML catalog and checks keys are valid and unique
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode author catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]Author, len(file.Authors))}
	for _, a := range file.Authors {
		if !validation.IsValidAuthorKey(a.Key) {
			return nil, fmt.Errorf("invalid author key %q", a.Key)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("author %q has no name", a.Key)
		}
		if _, dup := c.byKey[a.Key]; dup {
			return nil, fmt.Errorf("duplicate author key %q", a.Key)
		}
		c.byKey[a.Key] = a
		c.authors = append(c.authors, a)
	}

	sort.Slice(c.authors, func(i, j int) bool { return c.authors[i].Name < c.authors[j].Name })
	return c, nil
}

// List returns the authors ordered by display name
func (c *Catalog) List() []Author {
	out := make([]Author, len(c.authors))
	copy(out, c.authors)
	return out
}

// Lookup finds an author by key
func (c *Catalog) Lookup(key string) (Author, bool) {
	a, ok := c.byKey[key]
	return a, ok
}

// DisplayName returns the author's name, or the key itself when unknown
func (c *Catalog) DisplayName(key string) string {
	if a, ok := c.byKey[key]; ok {
		return a.Name
	}
	return key
}
