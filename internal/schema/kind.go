package schema

import "fmt"

// Kind is the declared value kind of a property.
// The set is closed: adding a kind requires extending KindCount and every
// switch over Kind (see TestEveryKindHasRoute in the projection package).
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindBool
	KindFloat
	KindDouble
	KindBytes
	KindDate
	KindObject

	// Kinds the local persistence engine can declare but the remote record
	// format cannot carry. Properties of these kinds are skipped.
	KindDecimal
	KindObjectID
	KindUUID
	KindMixed

	// KindCount is the total number of kinds defined.
	KindCount = int(iota)
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindInt:      "int",
	KindString:   "string",
	KindBool:     "bool",
	KindFloat:    "float",
	KindDouble:   "double",
	KindBytes:    "bytes",
	KindDate:     "date",
	KindObject:   "object",
	KindDecimal:  "decimal",
	KindObjectID: "object_id",
	KindUUID:     "uuid",
	KindMixed:    "mixed",
}

// String returns the schema name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsScalar reports whether the remote record format carries k directly.
func (k Kind) IsScalar() bool {
	switch k {
	case KindInt, KindString, KindBool, KindFloat, KindDouble, KindBytes, KindDate:
		return true
	default:
		return false
	}
}

// ParseKind resolves a schema kind name. "data" is accepted as an alias of "bytes".
func ParseKind(name string) (Kind, error) {
	if name == "data" {
		return KindBytes, nil
	}
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", name)
}

// Scope is the remote database a type synchronizes into.
type Scope int

const (
	// ScopePrivate is the signed-in user's private database. Zero value.
	ScopePrivate Scope = iota
	// ScopePublic is the application's public database.
	ScopePublic
	// ScopeShared is the shared database. Not supported for projection.
	ScopeShared
)

// String returns the config name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopePrivate:
		return "private"
	case ScopePublic:
		return "public"
	case ScopeShared:
		return "shared"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope resolves a scope name. The empty string means private.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "", "private":
		return ScopePrivate, nil
	case "public":
		return ScopePublic, nil
	case "shared":
		return ScopeShared, nil
	default:
		return 0, fmt.Errorf("unknown scope %q: must be private, public or shared", name)
	}
}
