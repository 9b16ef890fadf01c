package schema

import "fmt"

// Catalog maps type names to their object models.
//
// A catalog is immutable after NewCatalog returns, so concurrent lookups
// need no locking.
type Catalog struct {
	models map[string]*ObjectModel
	order  []string
}

// NewCatalog builds a catalog from models in declaration order.
// Returns an error on nil models, empty type names or duplicate type names.
func NewCatalog(models ...*ObjectModel) (*Catalog, error) {
	c := &Catalog{
		models: make(map[string]*ObjectModel, len(models)),
		order:  make([]string, 0, len(models)),
	}
	for i, m := range models {
		if m == nil {
			return nil, fmt.Errorf("model %d is nil", i)
		}
		if m.TypeName == "" {
			return nil, fmt.Errorf("model %d has no type name", i)
		}
		if _, dup := c.models[m.TypeName]; dup {
			return nil, fmt.Errorf("duplicate type %q", m.TypeName)
		}
		c.models[m.TypeName] = m
		c.order = append(c.order, m.TypeName)
	}
	return c, nil
}

// Lookup returns the model for typeName.
func (c *Catalog) Lookup(typeName string) (*ObjectModel, bool) {
	m, ok := c.models[typeName]
	return m, ok
}

// Models returns all models in declaration order.
func (c *Catalog) Models() []*ObjectModel {
	out := make([]*ObjectModel, len(c.order))
	for i, name := range c.order {
		out[i] = c.models[name]
	}
	return out
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	return len(c.order)
}
