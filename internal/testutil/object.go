package testutil

import "github.com/roach88/recordsync/internal/record"

// Object is a map-backed live object for projection tests.
type Object struct {
	Type    string
	Fields  map[string]any
	Deleted bool
}

// NewObject creates an Object of typeName with the given property values.
func NewObject(typeName string, fields map[string]any) *Object {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Object{Type: typeName, Fields: fields}
}

// TypeName implements schema.Object.
func (o *Object) TypeName() string { return o.Type }

// Value implements schema.Object. Unset properties read as nil.
func (o *Object) Value(name string) any { return o.Fields[name] }

// IsDeleted implements schema.Syncable.
func (o *Object) IsDeleted() bool { return o.Deleted }

// Tombstone marks the object soft-deleted and returns it.
func (o *Object) Tombstone() *Object {
	o.Deleted = true
	return o
}

// Plain is a live object that does not take part in synchronization.
type Plain struct {
	Type string
}

// TypeName implements schema.Object.
func (p Plain) TypeName() string { return p.Type }

// Value implements schema.Object.
func (p Plain) Value(string) any { return nil }

// Location is a geolocation wrapper.
type Location struct {
	Latitude, Longitude float64
}

// Location implements schema.LocationProvider.
func (l Location) Location() record.Location {
	return record.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Asset is a binary-asset wrapper.
type Asset struct {
	URL string
}

// Asset implements schema.AssetProvider.
func (a Asset) Asset() record.Asset {
	return record.Asset{FileURL: a.URL}
}
