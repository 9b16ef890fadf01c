package record

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catsZone() ZoneID {
	return ZoneID{Name: "CatsZone", Owner: CurrentUserOwner}
}

func TestMarshalCanonicalRecord(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	r.Set("name", String("Tom"))
	r.Set("age", Int(3))

	result, err := MarshalCanonical(r)
	require.NoError(t, err)

	expected := `{"fields":{"age":{"type":"int","value":3},"name":{"type":"string","value":"Tom"}},` +
		`"id":{"name":"c1","zone":{"name":"CatsZone","owner":"__defaultOwner__"}},"type":"Cat"}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalEmptyRecord(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})

	result, err := MarshalCanonical(r)
	require.NoError(t, err)

	assert.Equal(t, `{"fields":{},"id":{"name":"c1","zone":{"name":"CatsZone","owner":"__defaultOwner__"}},"type":"Cat"}`, string(result))
}

func TestMarshalValue(t *testing.T) {
	personRef := RecordID{Name: "p1", Zone: ZoneID{Name: "PersonsZone", Owner: CurrentUserOwner}}

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null{}, `null`},
		{"int", Int(-7), `{"type":"int","value":-7}`},
		{"string", String("hi"), `{"type":"string","value":"hi"}`},
		{"bool", Bool(true), `{"type":"bool","value":true}`},
		{"float", Float(1.5), `{"type":"float","value":1.5}`},
		{"double", Double(0.1), `{"type":"double","value":0.1}`},
		{"large double", Double(1e21), `{"type":"double","value":1e+21}`},
		{"bytes", Bytes("hi"), `{"type":"bytes","value":"aGk="}`},
		{"date", Date(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), `{"type":"date","value":"2024-01-02T03:04:05Z"}`},
		{"empty array", Array{}, `{"type":"array","value":[]}`},
		{"array", Array{String("a"), String("b")}, `{"type":"array","value":[{"type":"string","value":"a"},{"type":"string","value":"b"}]}`},
		{
			"reference",
			NewReference(personRef),
			`{"type":"reference","value":{"action":"none","record":{"name":"p1","zone":{"name":"PersonsZone","owner":"__defaultOwner__"}}}}`,
		},
		{
			"reference list",
			ReferenceArray{NewReference(personRef)},
			`{"type":"reference_list","value":[{"action":"none","record":{"name":"p1","zone":{"name":"PersonsZone","owner":"__defaultOwner__"}}}]}`,
		},
		{"location", Location{Latitude: 37.5, Longitude: -122.25}, `{"type":"location","value":{"latitude":37.5,"longitude":-122.25}}`},
		{"asset", Asset{FileURL: "/tmp/a.png"}, `{"type":"asset","value":{"file_url":"/tmp/a.png"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
			assert.True(t, json.Valid(result), "canonical output must be valid JSON")
		})
	}
}

func TestMarshalCanonicalDateIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2024, 1, 2, 5, 4, 5, 0, loc)

	result, err := MarshalValue(Date(local))
	require.NoError(t, err)

	assert.Equal(t, `{"type":"date","value":"2024-01-02T03:04:05Z"}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalValue(String("<script>a & b</script>"))
	require.NoError(t, err)

	assert.Equal(t, `{"type":"string","value":"<script>a & b</script>"}`, string(result))
	assert.NotContains(t, string(result), "\\u003c")
	assert.NotContains(t, string(result), "\\u0026")
}

func TestMarshalCanonicalEscapesControlCharacters(t *testing.T) {
	result, err := MarshalValue(String("a\"b\\c\nd\x01"))
	require.NoError(t, err)

	assert.Equal(t, `{"type":"string","value":"a\"b\\c\nd\u0001"}`, string(result))
}

func TestMarshalCanonicalLineSeparatorsLiteral(t *testing.T) {
	result, err := MarshalValue(String("a\u2028b\u2029c"))
	require.NoError(t, err)

	assert.Equal(t, "{\"type\":\"string\",\"value\":\"a\u2028b\u2029c\"}", string(result))
	assert.NotContains(t, string(result), `\u2028`)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	result1, err := MarshalValue(String(composed))
	require.NoError(t, err)
	result2, err := MarshalValue(String(decomposed))
	require.NoError(t, err)

	assert.Equal(t, result1, result2, "NFC normalization should make these equal")
}

func TestMarshalCanonicalRejectsNonFiniteFloats(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"nan double", Double(math.NaN())},
		{"inf double", Double(math.Inf(1))},
		{"inf float", Float(float32(math.Inf(-1)))},
		{"nan latitude", Location{Latitude: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalValue(tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "non-finite")
		})
	}
}

func TestMarshalCanonicalRejectsNestedArray(t *testing.T) {
	_, err := MarshalValue(Array{Array{Int(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a scalar")
}

func TestMarshalCanonicalRejectsMissingValue(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	r.Fields["broken"] = nil

	_, err := MarshalCanonical(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "broken"`)
}

func TestMarshalCanonicalNilRecord(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
}

func TestRecordMarshalJSONIsCanonical(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	r.Set("tags", Array{String("x")})

	viaJSON, err := json.Marshal(r)
	require.NoError(t, err)
	canonical, err := MarshalCanonical(r)
	require.NoError(t, err)

	assert.Equal(t, canonical, viaJSON)
}
