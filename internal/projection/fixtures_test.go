package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/schema"
	"github.com/roach88/recordsync/internal/testutil"
)

func str(name string) schema.PropertyDescriptor {
	return schema.PropertyDescriptor{Name: name, Kind: schema.KindString}
}

func listOf(name string, kind schema.Kind) schema.PropertyDescriptor {
	return schema.PropertyDescriptor{Name: name, Kind: kind, IsCollection: true}
}

func object(name, target string) schema.PropertyDescriptor {
	return schema.PropertyDescriptor{Name: name, Kind: schema.KindObject, RelatedType: target}
}

func objects(name, target string) schema.PropertyDescriptor {
	return schema.PropertyDescriptor{Name: name, Kind: schema.KindObject, RelatedType: target, IsCollection: true}
}

func personModel() *schema.ObjectModel {
	return &schema.ObjectModel{
		TypeName:   "Person",
		PrimaryKey: "id",
		Properties: []schema.PropertyDescriptor{str("id"), str("name")},
	}
}

func catModel() *schema.ObjectModel {
	return &schema.ObjectModel{
		TypeName:   "Cat",
		PrimaryKey: "id",
		Properties: []schema.PropertyDescriptor{
			str("id"),
			str("name"),
			{Name: "age", Kind: schema.KindInt},
			{Name: "weight", Kind: schema.KindDouble},
			{Name: "birthday", Kind: schema.KindDate},
			listOf("tags", schema.KindString),
			object("owner", "Person"),
			objects("friends", "Cat"),
			object("home", schema.LocationType),
			object("photo", schema.AssetType),
			{Name: "price", Kind: schema.KindDecimal},
			listOf("scores", schema.KindInt),
		},
	}
}

func tagModel() *schema.ObjectModel {
	return &schema.ObjectModel{
		TypeName:   "Tag",
		PrimaryKey: "code",
		Scope:      schema.ScopePublic,
		Properties: []schema.PropertyDescriptor{
			{Name: "code", Kind: schema.KindInt},
			str("label"),
		},
	}
}

func newCatalog(t *testing.T, models ...*schema.ObjectModel) *schema.Catalog {
	t.Helper()
	if len(models) == 0 {
		models = []*schema.ObjectModel{personModel(), catModel(), tagModel()}
	}
	c, err := schema.NewCatalog(models...)
	require.NoError(t, err)
	return c
}

func newProjector(t *testing.T, models ...*schema.ObjectModel) *Projector {
	t.Helper()
	return New(newCatalog(t, models...), WithLogger(testutil.NewTestLogger(t)))
}

func cat(id string, fields map[string]any) *testutil.Object {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["id"] = id
	return testutil.NewObject("Cat", fields)
}

func catRef(id string) record.Reference {
	return record.NewReference(record.RecordID{
		Name: id,
		Zone: record.ZoneID{Name: "CatsZone", Owner: record.CurrentUserOwner},
	})
}

// spyObserver counts outcomes by type and code.
type spyObserver struct {
	projected int
	skipped   map[string]int
	diagnosed map[string]int
}

func newSpyObserver() *spyObserver {
	return &spyObserver{skipped: map[string]int{}, diagnosed: map[string]int{}}
}

func (s *spyObserver) Projected(string, time.Duration) { s.projected++ }
func (s *spyObserver) Skipped(_, code string)          { s.skipped[code]++ }
func (s *spyObserver) Diagnosed(_, code string)        { s.diagnosed[code]++ }
