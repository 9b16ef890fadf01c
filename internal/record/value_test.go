package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Value = Null{}
	var _ Value = Int(42)
	var _ Value = String("test")
	var _ Value = Bool(true)
	var _ Value = Float(1.5)
	var _ Value = Double(2.5)
	var _ Value = Bytes("raw")
	var _ Value = Date(time.Unix(0, 0))
	var _ Value = Array{Int(1)}
	var _ Value = Reference{}
	var _ Value = ReferenceArray{}
	var _ Value = Location{}
	var _ Value = Asset{}
}

func TestIsScalar(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		scalar bool
	}{
		{"int", Int(1), true},
		{"string", String("a"), true},
		{"bool", Bool(false), true},
		{"float", Float(1), true},
		{"double", Double(1), true},
		{"bytes", Bytes{0x01}, true},
		{"date", Date(time.Unix(1, 0)), true},
		{"null", Null{}, false},
		{"array", Array{}, false},
		{"reference", Reference{}, false},
		{"reference list", ReferenceArray{}, false},
		{"location", Location{}, false},
		{"asset", Asset{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.scalar, IsScalar(tt.value))
		})
	}
}

func TestNewReferenceNeverCascades(t *testing.T) {
	target := RecordID{Name: "p1", Zone: ZoneID{Name: "PersonsZone", Owner: CurrentUserOwner}}

	ref := NewReference(target)

	assert.Equal(t, target, ref.Target)
	assert.Equal(t, DeleteNone, ref.OnDelete)
	assert.Equal(t, "none", ref.OnDelete.String())
}

func TestDefaultZone(t *testing.T) {
	z := DefaultZone()

	assert.Equal(t, "_defaultZone", z.Name)
	assert.Equal(t, "__defaultOwner__", z.Owner)
	assert.Equal(t, "__defaultOwner__/_defaultZone", z.String())
}

func TestRecordSetAndGet(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: DefaultZone()})
	r.Set("name", String("Tom"))
	r.Set("owner", Null{})

	v, ok := r.Get("name")
	require.True(t, ok)
	assert.Equal(t, String("Tom"), v)

	v, ok = r.Get("owner")
	require.True(t, ok)
	assert.Equal(t, Null{}, v, "Null is stored, not omitted")

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRecordFieldNamesSorted(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: DefaultZone()})
	r.Set("zebra", Int(1))
	r.Set("apple", Int(2))
	r.Set("Banana", Int(3))

	// Uppercase sorts before lowercase in UTF-16 order
	assert.Equal(t, []string{"Banana", "apple", "zebra"}, r.FieldNames())
}

func TestRecordIDString(t *testing.T) {
	id := RecordID{Name: "42", Zone: ZoneID{Name: "CatsZone", Owner: CurrentUserOwner}}
	assert.Equal(t, "__defaultOwner__/CatsZone/42", id.String())
}
