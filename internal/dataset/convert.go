package dataset

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/recordsync/internal/schema"
)

type objectKey struct {
	typeName string
	pk       string
}

// build converts entries in two passes: scalar values first so primary keys
// are indexed, then relationships resolved against the index.
func build(f *File, catalog *schema.Catalog) (*Dataset, error) {
	ds := &Dataset{Objects: make([]*Object, len(f.Objects))}
	index := make(map[objectKey]*Object, len(f.Objects))

	for i, e := range f.Objects {
		obj := &Object{typeName: e.Type, deleted: e.Deleted, values: make(map[string]any, len(e.Values))}
		ds.Objects[i] = obj

		model, ok := catalog.Lookup(e.Type)
		if !ok {
			for name, v := range e.Values {
				obj.values[name] = v
			}
			continue
		}

		for name, v := range e.Values {
			prop, _ := model.Property(name)
			if prop.Kind == schema.KindObject && !isWrapper(prop) {
				continue
			}
			obj.values[name] = convertValue(prop, v)
		}

		pk, ok := model.PrimaryKeyProperty()
		if !ok {
			continue
		}
		key, ok := refKey(obj.values[pk.Name])
		if !ok {
			continue
		}
		k := objectKey{typeName: e.Type, pk: key}
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("objects[%d]: duplicate %s with %s %q", i, e.Type, pk.Name, key)
		}
		index[k] = obj
	}

	for i, e := range f.Objects {
		model, ok := catalog.Lookup(e.Type)
		if !ok {
			continue
		}
		obj := ds.Objects[i]
		for name, v := range e.Values {
			prop, _ := model.Property(name)
			if prop.Kind != schema.KindObject || isWrapper(prop) {
				continue
			}
			obj.values[name] = resolve(index, prop, v)
		}
	}

	return ds, nil
}

func isWrapper(p schema.PropertyDescriptor) bool {
	return !p.IsCollection && (p.RelatedType == schema.LocationType || p.RelatedType == schema.AssetType)
}

// resolve replaces primary-key references with the objects they name.
// Unresolvable references are kept raw.
func resolve(index map[objectKey]*Object, prop schema.PropertyDescriptor, v any) any {
	lookup := func(ref any) any {
		key, ok := refKey(ref)
		if !ok {
			return ref
		}
		if obj, ok := index[objectKey{typeName: prop.RelatedType, pk: key}]; ok {
			return obj
		}
		return ref
	}

	if !prop.IsCollection {
		if v == nil {
			return nil
		}
		return lookup(v)
	}

	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, ref := range list {
		out[i] = lookup(ref)
	}
	return out
}

// refKey renders a primary-key value the way it is indexed.
func refKey(v any) (string, bool) {
	switch k := v.(type) {
	case string:
		return k, true
	case int:
		return strconv.Itoa(k), true
	case int64:
		return strconv.FormatInt(k, 10), true
	default:
		return "", false
	}
}

// convertValue converts a decoded YAML value to the Go type of the declared
// kind, or returns it unchanged when it does not fit.
func convertValue(prop schema.PropertyDescriptor, v any) any {
	if v == nil {
		return nil
	}

	if prop.Kind == schema.KindObject {
		switch prop.RelatedType {
		case schema.LocationType:
			return convertLocation(v)
		case schema.AssetType:
			return convertAsset(v)
		}
		return v
	}

	if !prop.IsCollection {
		c, _ := convertScalar(prop.Kind, v)
		return c
	}

	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, e := range list {
		out[i], _ = convertScalar(prop.Kind, e)
	}
	return out
}

// convertScalar converts one value. On failure the value is returned as is.
func convertScalar(kind schema.Kind, v any) (any, bool) {
	switch kind {
	case schema.KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int64:
			return n, true
		case uint64:
			if n <= math.MaxInt64 {
				return int64(n), true
			}
		}
	case schema.KindString:
		if s, ok := v.(string); ok {
			return s, true
		}
	case schema.KindBool:
		if b, ok := v.(bool); ok {
			return b, true
		}
	case schema.KindFloat:
		if f, ok := asFloat(v); ok && math.Abs(f) <= math.MaxFloat32 {
			return float32(f), true
		}
	case schema.KindDouble:
		if f, ok := asFloat(v); ok {
			return f, true
		}
	case schema.KindBytes:
		if s, ok := v.(string); ok {
			if b, err := base64.StdEncoding.DecodeString(s); err == nil {
				return b, true
			}
		}
	case schema.KindDate:
		switch d := v.(type) {
		case time.Time:
			return d, true
		case string:
			if t, ok := parseDate(d); ok {
				return t, true
			}
		}
	}
	return v, false
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	default:
		return 0, false
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func convertLocation(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 2 {
		return v
	}
	lat, ok1 := asFloat(m["latitude"])
	lon, ok2 := asFloat(m["longitude"])
	if !ok1 || !ok2 {
		return v
	}
	return Location{Latitude: lat, Longitude: lon}
}

func convertAsset(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	url, ok := m["file_url"].(string)
	if !ok {
		return v
	}
	return Asset{FileURL: url}
}
