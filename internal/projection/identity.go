package projection

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
)

// MaxRecordNameLength is the longest record name the remote store accepts.
const MaxRecordNameLength = 255

// zoneSuffix is appended to the type name to name its private zone.
const zoneSuffix = "sZone"

// DeriveZone returns the zone records of typeName live in.
//
//   - private: "{typeName}sZone", owned by the current user
//   - public:  the default zone
//   - shared and anything else: fatal CodeUnsupportedScope
//
// DeriveZone is pure; the same inputs always yield the same zone.
func DeriveZone(typeName string, scope schema.Scope) (record.ZoneID, error) {
	switch scope {
	case schema.ScopePrivate:
		return record.ZoneID{Name: typeName + zoneSuffix, Owner: record.CurrentUserOwner}, nil
	case schema.ScopePublic:
		return record.DefaultZone(), nil
	default:
		return record.ZoneID{}, fatalError(CodeUnsupportedScope, typeName, "",
			fmt.Sprintf("%s database is not supported", scope))
	}
}

// ValidateRecordName checks a string primary key against the remote store's
// record name rules. The returned error wraps one of ErrNonASCIIName,
// ErrNameTooLong or ErrLeadingUnderscore.
func ValidateRecordName(name string) error {
	for i := 0; i < len(name); i++ {
		if name[i] >= utf8.RuneSelf {
			return ErrNonASCIIName
		}
	}
	if len(name) > MaxRecordNameLength {
		return ErrNameTooLong
	}
	if strings.HasPrefix(name, "_") {
		return ErrLeadingUnderscore
	}
	return nil
}

// DeriveRecordID computes the record identity of obj under scope.
//
// Fatal errors: no primary key, primary key of a kind other than string or
// int, unsupported scope. Soft errors: primary-key value of the wrong runtime
// type, invalid record name.
func DeriveRecordID(obj schema.Object, model *schema.ObjectModel, scope schema.Scope) (record.RecordID, error) {
	return deriveRecordID(obj, model, scope, DeriveZone)
}

type zoneFunc func(typeName string, scope schema.Scope) (record.ZoneID, error)

func deriveRecordID(obj schema.Object, model *schema.ObjectModel, scope schema.Scope, zoneOf zoneFunc) (record.RecordID, error) {
	pk, ok := model.PrimaryKeyProperty()
	if !ok {
		return record.RecordID{}, fatalError(CodeMissingPrimaryKey, model.TypeName, model.PrimaryKey,
			"type must declare a primary key")
	}
	if pk.IsCollection || (pk.Kind != schema.KindString && pk.Kind != schema.KindInt) {
		return record.RecordID{}, fatalError(CodeUnsupportedPrimaryKey, model.TypeName, pk.Name,
			fmt.Sprintf("primary key must be string or int, got %s", describeKind(pk)))
	}

	zone, err := zoneOf(model.TypeName, scope)
	if err != nil {
		return record.RecordID{}, err
	}

	raw := obj.Value(pk.Name)
	var name string
	switch pk.Kind {
	case schema.KindString:
		s, ok := raw.(string)
		if !ok {
			return record.RecordID{}, softError(CodePrimaryKeyMismatch, model.TypeName, pk.Name,
				fmt.Sprintf("value should be string, got %T", raw))
		}
		if err := ValidateRecordName(s); err != nil {
			e := softError(CodeInvalidRecordName, model.TypeName, pk.Name, fmt.Sprintf("invalid record name %q", s))
			e.Err = err
			return record.RecordID{}, e
		}
		name = s
	case schema.KindInt:
		n, ok := asInt64(raw)
		if !ok {
			return record.RecordID{}, softError(CodePrimaryKeyMismatch, model.TypeName, pk.Name,
				fmt.Sprintf("value should be int, got %T", raw))
		}
		name = strconv.FormatInt(n, 10)
	}

	return record.RecordID{Name: name, Zone: zone}, nil
}

func describeKind(p schema.PropertyDescriptor) string {
	if p.IsCollection {
		return "list of " + p.Kind.String()
	}
	return p.Kind.String()
}

// asInt64 widens any Go integer to int64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

type zoneKey struct {
	typeName string
	scope    schema.Scope
}

// zoneCache memoizes DeriveZone for the lifetime of a Projector.
// Safe for concurrent use.
type zoneCache struct {
	zones sync.Map // zoneKey -> record.ZoneID
}

func (c *zoneCache) zone(typeName string, scope schema.Scope) (record.ZoneID, error) {
	key := zoneKey{typeName: typeName, scope: scope}
	if z, ok := c.zones.Load(key); ok {
		return z.(record.ZoneID), nil
	}
	z, err := DeriveZone(typeName, scope)
	if err != nil {
		return record.ZoneID{}, err
	}
	c.zones.Store(key, z)
	return z, nil
}
