package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashDeterminism(t *testing.T) {
	build := func() *Record {
		r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
		r.Set("name", String("Tom"))
		r.Set("tags", Array{String("a"), String("b")})
		r.Set("owner", Null{})
		return r
	}

	h1, err := ContentHash(build())
	require.NoError(t, err)
	h2, err := ContentHash(build())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "ContentHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestContentHashChangesWithInput(t *testing.T) {
	base := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	base.Set("name", String("Tom"))

	renamed := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	renamed.Set("name", String("Jerry"))

	otherID := New("Cat", RecordID{Name: "c2", Zone: catsZone()})
	otherID.Set("name", String("Tom"))

	otherZone := New("Cat", RecordID{Name: "c1", Zone: DefaultZone()})
	otherZone.Set("name", String("Tom"))

	cleared := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	cleared.Set("name", Null{})

	h := MustContentHash(base)
	assert.NotEqual(t, h, MustContentHash(renamed), "different field value")
	assert.NotEqual(t, h, MustContentHash(otherID), "different record name")
	assert.NotEqual(t, h, MustContentHash(otherZone), "different zone")
	assert.NotEqual(t, h, MustContentHash(cleared), "cleared field")
}

func TestContentHashDistinguishesNullFromAbsent(t *testing.T) {
	absent := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	cleared := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	cleared.Set("friends", Null{})

	assert.NotEqual(t, MustContentHash(absent), MustContentHash(cleared))
}

func TestContentHashDomainSeparation(t *testing.T) {
	r := New("Cat", RecordID{Name: "c1", Zone: catsZone()})
	canonical, err := MarshalCanonical(r)
	require.NoError(t, err)

	assert.Equal(t, hashWithDomain(DomainRecord, canonical), MustContentHash(r))
	assert.NotEqual(t, hashWithDomain("other/v1", canonical), MustContentHash(r))
}

func TestMustContentHashPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustContentHash(nil)
	})
}
