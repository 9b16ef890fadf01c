package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
)

// File is the YAML document layout.
type File struct {
	Objects []Entry `yaml:"objects"`
}

// Entry is one object as written in the file.
type Entry struct {
	// Type names the object's catalog type.
	Type string `yaml:"type"`

	// Deleted marks the object as a tombstone.
	Deleted bool `yaml:"deleted,omitempty"`

	// Values holds property values by name.
	Values map[string]any `yaml:"values"`
}

// Object is a loaded live object.
type Object struct {
	typeName string
	deleted  bool
	values   map[string]any
}

// TypeName implements schema.Object.
func (o *Object) TypeName() string { return o.typeName }

// Value implements schema.Object. Unset properties read as nil.
func (o *Object) Value(name string) any { return o.values[name] }

// IsDeleted implements schema.Syncable.
func (o *Object) IsDeleted() bool { return o.deleted }

// Location is a geolocation value.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Location implements schema.LocationProvider.
func (l Location) Location() record.Location {
	return record.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Asset is a binary-asset value.
type Asset struct {
	FileURL string
}

// Asset implements schema.AssetProvider.
func (a Asset) Asset() record.Asset {
	return record.Asset{FileURL: a.FileURL}
}

// Dataset is a loaded snapshot in file order.
type Dataset struct {
	Objects []*Object
}

// Syncables returns the objects as projection inputs, in file order.
func (d *Dataset) Syncables() []schema.Syncable {
	out := make([]schema.Syncable, len(d.Objects))
	for i, o := range d.Objects {
		out[i] = o
	}
	return out
}

// Load reads and converts a dataset file against catalog.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or declares conflicting objects.
func Load(path string, catalog *schema.Catalog) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return Parse(bytes.NewReader(data), catalog)
}

// Parse decodes and converts a dataset from r.
func Parse(r io.Reader, catalog *schema.Catalog) (*Dataset, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return Build(&file, catalog)
}

// Build converts decoded entries against catalog. Parse uses it after
// decoding; callers embedding entries in their own documents use it directly.
func Build(f *File, catalog *schema.Catalog) (*Dataset, error) {
	if err := validateFile(f, catalog); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return build(f, catalog)
}

// validateFile checks entry shape before conversion.
func validateFile(f *File, catalog *schema.Catalog) error {
	for i, e := range f.Objects {
		if e.Type == "" {
			return fmt.Errorf("objects[%d]: type is required", i)
		}
		model, ok := catalog.Lookup(e.Type)
		if !ok {
			// Unknown types are loaded raw; projection rejects them.
			continue
		}
		for name := range e.Values {
			if _, ok := model.Property(name); !ok {
				return fmt.Errorf("objects[%d]: %s has no property %q", i, e.Type, name)
			}
		}
	}
	return nil
}
