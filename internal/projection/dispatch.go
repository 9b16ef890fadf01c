package projection

import "github.com/roach88/recordsync/internal/schema"

// Route is how a property reaches the record.
type Route int

const (
	// RouteSkip omits the property from the record.
	RouteSkip Route = iota
	// RouteScalar copies a scalar value directly.
	RouteScalar
	// RouteCollection projects an ordered scalar sequence.
	RouteCollection
	// RouteToOne encodes a single object reference.
	RouteToOne
	// RouteToMany encodes an ordered list of object references.
	RouteToMany
	// RouteLocation projects a geolocation wrapper to its native value.
	RouteLocation
	// RouteAsset projects a binary-asset wrapper to its native value.
	RouteAsset

	// RouteCount is the total number of routes defined.
	RouteCount = int(iota)
)

var routeNames = [...]string{
	RouteSkip:       "skip",
	RouteScalar:     "scalar",
	RouteCollection: "collection",
	RouteToOne:      "to_one",
	RouteToMany:     "to_many",
	RouteLocation:   "location",
	RouteAsset:      "asset",
}

// String returns the route name.
func (r Route) String() string {
	if r < 0 || int(r) >= len(routeNames) {
		return "unknown"
	}
	return routeNames[r]
}

// Classify routes a property by its declared kind.
//
// Collections route by element kind regardless of anything else. Single
// object properties route to the geolocation and asset wrappers by related
// type name before falling back to a to-one reference.
func Classify(p schema.PropertyDescriptor) Route {
	switch p.Kind {
	case schema.KindInt, schema.KindString, schema.KindBool, schema.KindFloat,
		schema.KindDouble, schema.KindBytes, schema.KindDate:
		if p.IsCollection {
			return RouteCollection
		}
		return RouteScalar
	case schema.KindObject:
		if p.IsCollection {
			return RouteToMany
		}
		switch p.RelatedType {
		case schema.LocationType:
			return RouteLocation
		case schema.AssetType:
			return RouteAsset
		}
		return RouteToOne
	case schema.KindDecimal, schema.KindObjectID, schema.KindUUID, schema.KindMixed, schema.KindInvalid:
		return RouteSkip
	default:
		return RouteSkip
	}
}

// skipCode is the diagnostic code for a skipped property.
func skipCode(p schema.PropertyDescriptor) ErrorCode {
	if p.IsCollection {
		return CodeUnsupportedElement
	}
	return CodeUnsupportedKind
}
