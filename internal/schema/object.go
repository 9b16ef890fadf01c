package schema

import "github.com/roach88/recordsync/internal/record"

// Object is a live persisted instance exposing typed property access.
//
// Value returns the property's current value, typed by declared kind:
//
//	int     int64 (any Go integer type is accepted)
//	string  string
//	bool    bool
//	float   float32
//	double  float64
//	bytes   []byte
//	date    time.Time
//	object  Object, or nil when unset
//
// Collections are slices of the element type, or []any. Properties that are
// unset return nil.
type Object interface {
	TypeName() string
	Value(name string) any
}

// Syncable is the projection contract: an object that takes part in remote
// synchronization and carries a tombstone flag.
// Relationship targets that do not implement Syncable are not encoded.
type Syncable interface {
	Object

	// IsDeleted reports whether the object is soft-deleted.
	IsDeleted() bool
}

// LocationProvider is implemented by geolocation wrapper objects.
type LocationProvider interface {
	Location() record.Location
}

// AssetProvider is implemented by binary-asset wrapper objects.
type AssetProvider interface {
	Asset() record.Asset
}
