package record

import "time"

// Value is a sealed interface over the attribute values a record can carry.
// Only Null, Int, String, Bool, Float, Double, Bytes, Date, Array, Reference,
// ReferenceArray, Location and Asset implement it.
type Value interface {
	recordValue()
}

// Null clears a field on the remote record.
// A field holding Null is hidden by the remote store rather than omitted.
type Null struct{}

func (Null) recordValue() {}

// Int is a 64-bit integer attribute.
type Int int64

func (Int) recordValue() {}

// String is a string attribute.
type String string

func (String) recordValue() {}

// Bool is a boolean attribute.
type Bool bool

func (Bool) recordValue() {}

// Float is a single-precision attribute.
type Float float32

func (Float) recordValue() {}

// Double is a double-precision attribute.
type Double float64

func (Double) recordValue() {}

// Bytes is an opaque binary attribute.
type Bytes []byte

func (Bytes) recordValue() {}

// Date is a point-in-time attribute.
type Date time.Time

func (Date) recordValue() {}

// Time returns the wrapped time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// Array is an ordered, homogeneous sequence of scalar values.
// Elements are never Reference, ReferenceArray or Array.
type Array []Value

func (Array) recordValue() {}

// Reference points at another record.
type Reference struct {
	Target   RecordID
	OnDelete DeleteAction
}

func (Reference) recordValue() {}

// ReferenceArray is an ordered to-many relationship.
type ReferenceArray []Reference

func (ReferenceArray) recordValue() {}

// Location is the native geolocation value of the remote store.
type Location struct {
	Latitude  float64
	Longitude float64
}

func (Location) recordValue() {}

// Asset is the native binary-asset value of the remote store.
// FileURL locates the asset payload on local disk for upload.
type Asset struct {
	FileURL string
}

func (Asset) recordValue() {}

// DeleteAction is the remote store's behavior when a referenced record is deleted.
type DeleteAction int

const (
	// DeleteNone leaves the referencing record untouched.
	DeleteNone DeleteAction = iota
)

// String returns the wire name of the action.
func (a DeleteAction) String() string {
	switch a {
	case DeleteNone:
		return "none"
	default:
		return "unknown"
	}
}

// NewReference creates a reference that never cascades deletes.
func NewReference(target RecordID) Reference {
	return Reference{Target: target, OnDelete: DeleteNone}
}

// IsScalar reports whether v may appear as an Array element.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Int, String, Bool, Float, Double, Bytes, Date:
		return true
	default:
		return false
	}
}
