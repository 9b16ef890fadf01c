package record

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Remote store constants for zone ownership.
const (
	// CurrentUserOwner is the owner sentinel resolved by the remote store
	// to the signed-in account.
	CurrentUserOwner = "__defaultOwner__"

	// DefaultZoneName names the zone every database starts with.
	DefaultZoneName = "_defaultZone"
)

// ZoneID names a partition of the remote record space.
type ZoneID struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// DefaultZone returns the remote store's default zone.
func DefaultZone() ZoneID {
	return ZoneID{Name: DefaultZoneName, Owner: CurrentUserOwner}
}

// String returns "owner/name".
func (z ZoneID) String() string {
	return z.Owner + "/" + z.Name
}

// RecordID identifies a record within the remote store.
type RecordID struct {
	Name string `json:"name"`
	Zone ZoneID `json:"zone"`
}

// String returns "owner/zone/name".
func (id RecordID) String() string {
	return fmt.Sprintf("%s/%s", id.Zone, id.Name)
}

// Record is one synchronizable entity at the remote store.
type Record struct {
	Type   string
	ID     RecordID
	Fields map[string]Value
}

// New creates an empty record of the given type.
func New(typeName string, id RecordID) *Record {
	return &Record{
		Type:   typeName,
		ID:     id,
		Fields: make(map[string]Value),
	}
}

// Set stores v under name. Passing Null clears the field remotely.
func (r *Record) Set(name string, v Value) {
	r.Fields[name] = v
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// FieldNames returns field names in RFC 8785 canonical order (UTF-16 code units).
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	slices.SortFunc(names, compareKeysRFC8785)
	return names
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
// Go's default string comparison uses UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (r *Record) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(r)
}
