package projection

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
)

// scalarValue converts a live value of a declared scalar kind into its
// record value. Returns false when the runtime type disagrees with kind.
func scalarValue(kind schema.Kind, v any) (record.Value, bool) {
	switch kind {
	case schema.KindInt:
		n, ok := asInt64(v)
		if !ok {
			return nil, false
		}
		return record.Int(n), true
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return record.String(s), true
	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, false
		}
		return record.Bool(b), true
	case schema.KindFloat:
		var f float64
		switch n := v.(type) {
		case float32:
			f = float64(n)
		case float64:
			f = n
		default:
			return nil, false
		}
		if !isFinite(f) || math.Abs(f) > math.MaxFloat32 {
			return nil, false
		}
		return record.Float(float32(f)), true
	case schema.KindDouble:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		default:
			return nil, false
		}
		if !isFinite(f) {
			return nil, false
		}
		return record.Double(f), true
	case schema.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, false
		}
		return record.Bytes(bytes.Clone(b)), true
	case schema.KindDate:
		switch d := v.(type) {
		case time.Time:
			return record.Date(d), true
		case *time.Time:
			if d == nil {
				return nil, false
			}
			return record.Date(*d), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// mismatch describes why v is not a valid kind value.
func mismatch(kind schema.Kind, v any) string {
	if kind == schema.KindFloat || kind == schema.KindDouble {
		switch f := v.(type) {
		case float32, float64:
			return fmt.Sprintf("%v does not fit in a %s", f, kind)
		}
	}
	return fmt.Sprintf("value should be %s, got %T", kind, v)
}

// isFinite reports whether f can be encoded in a record.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// projectCollection converts a live sequence of kind elements into an Array,
// preserving order. An unset or empty sequence yields an empty Array.
// Any element of the wrong runtime type fails the whole collection.
//
// A []byte is a single bytes value, never a list of ints.
func projectCollection(kind schema.Kind, v any) (record.Array, error) {
	if _, isBytes := v.([]byte); isBytes {
		return nil, fmt.Errorf("value should be a list of %s, got []byte", kind)
	}
	elems, ok := elements(v)
	if !ok {
		return nil, fmt.Errorf("value should be a list of %s, got %T", kind, v)
	}
	arr := make(record.Array, 0, len(elems))
	for i, e := range elems {
		sv, ok := scalarValue(kind, e)
		if !ok {
			return nil, fmt.Errorf("element %d: %s", i, mismatch(kind, e))
		}
		arr = append(arr, sv)
	}
	return arr, nil
}

// elements flattens any slice or array into []any. nil is an empty sequence.
func elements(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, true
	case []any:
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
