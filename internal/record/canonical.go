package record

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON encoding of a record.
// This is the ONLY encoding that should be used for content hashing.
//
// Encoding rules:
//  1. Object keys sorted by UTF-16 code units (RFC 8785)
//  2. No HTML escaping; only quote, backslash and control characters are escaped
//  3. Strings are NFC normalized
//  4. Every non-null value is tagged: {"type": <kind>, "value": <payload>}
//  5. Null is encoded as JSON null
//  6. NaN and infinite floats are rejected
func MarshalCanonical(r *Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil record")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"fields":{`)
	for i, name := range r.FieldNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, name)
		buf.WriteByte(':')
		if err := writeValue(&buf, r.Fields[name]); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	buf.WriteString(`},"id":`)
	writeRecordID(&buf, r.ID)
	buf.WriteString(`,"type":`)
	writeString(&buf, r.Type)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue produces the canonical JSON encoding of a single value.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("missing value (use Null to clear a field)")
	case Null:
		buf.WriteString("null")
		return nil
	case Array:
		buf.WriteString(`{"type":"array","value":[`)
		for i, elem := range val {
			if !IsScalar(elem) {
				return fmt.Errorf("array[%d]: %T is not a scalar", i, elem)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteString("]}")
		return nil
	case Reference:
		buf.WriteString(`{"type":"reference","value":`)
		writeReference(buf, val)
		buf.WriteByte('}')
		return nil
	case ReferenceArray:
		buf.WriteString(`{"type":"reference_list","value":[`)
		for i, ref := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeReference(buf, ref)
		}
		buf.WriteString("]}")
		return nil
	case Location:
		lat, err := formatFloat(val.Latitude, 64)
		if err != nil {
			return fmt.Errorf("latitude: %w", err)
		}
		lon, err := formatFloat(val.Longitude, 64)
		if err != nil {
			return fmt.Errorf("longitude: %w", err)
		}
		buf.WriteString(`{"type":"location","value":{"latitude":`)
		buf.WriteString(lat)
		buf.WriteString(`,"longitude":`)
		buf.WriteString(lon)
		buf.WriteString("}}")
		return nil
	case Asset:
		buf.WriteString(`{"type":"asset","value":{"file_url":`)
		writeString(buf, val.FileURL)
		buf.WriteString("}}")
		return nil
	}

	kind, payload, err := scalarPayload(v)
	if err != nil {
		return err
	}
	buf.WriteString(`{"type":"`)
	buf.WriteString(kind)
	buf.WriteString(`","value":`)
	buf.WriteString(payload)
	buf.WriteByte('}')
	return nil
}

// scalarPayload returns the type tag and encoded payload for a scalar value.
func scalarPayload(v Value) (string, string, error) {
	switch val := v.(type) {
	case Int:
		return "int", strconv.FormatInt(int64(val), 10), nil
	case String:
		var b bytes.Buffer
		writeString(&b, string(val))
		return "string", b.String(), nil
	case Bool:
		return "bool", strconv.FormatBool(bool(val)), nil
	case Float:
		s, err := formatFloat(float64(val), 32)
		return "float", s, err
	case Double:
		s, err := formatFloat(float64(val), 64)
		return "double", s, err
	case Bytes:
		return "bytes", `"` + base64.StdEncoding.EncodeToString(val) + `"`, nil
	case Date:
		return "date", `"` + time.Time(val).UTC().Format(time.RFC3339Nano) + `"`, nil
	default:
		return "", "", fmt.Errorf("unsupported value type: %T", v)
	}
}

func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize), nil
}

func writeReference(buf *bytes.Buffer, ref Reference) {
	buf.WriteString(`{"action":`)
	writeString(buf, ref.OnDelete.String())
	buf.WriteString(`,"record":`)
	writeRecordID(buf, ref.Target)
	buf.WriteByte('}')
}

func writeRecordID(buf *bytes.Buffer, id RecordID) {
	buf.WriteString(`{"name":`)
	writeString(buf, id.Name)
	buf.WriteString(`,"zone":{"name":`)
	writeString(buf, id.Zone.Name)
	buf.WriteString(`,"owner":`)
	writeString(buf, id.Zone.Owner)
	buf.WriteString("}}")
}

const hexDigits = "0123456789abcdef"

// writeString writes an NFC-normalized JSON string per RFC 8785:
// quote, backslash and U+0000..U+001F are escaped, everything else is literal.
func writeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte('"')
}
