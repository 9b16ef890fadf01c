package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordsync/internal/schema"
)

func catalog(t *testing.T, models ...*schema.ObjectModel) *schema.Catalog {
	t.Helper()
	c, err := schema.NewCatalog(models...)
	require.NoError(t, err)
	return c
}

func validPerson() *schema.ObjectModel {
	return &schema.ObjectModel{
		TypeName:   "Person",
		PrimaryKey: "id",
		Properties: []schema.PropertyDescriptor{
			{Name: "id", Kind: schema.KindString},
			{Name: "home", Kind: schema.KindObject, RelatedType: schema.LocationType},
			{Name: "avatar", Kind: schema.KindObject, RelatedType: schema.AssetType},
			{Name: "pets", Kind: schema.KindObject, RelatedType: "Person", IsCollection: true},
			{Name: "balance", Kind: schema.KindDecimal},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	errs := Validate(catalog(t, validPerson()))
	assert.Empty(t, errs, "valid catalog should have no errors")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *schema.ObjectModel)
		want   []string
	}{
		{
			name:   "missing primary key",
			mutate: func(m *schema.ObjectModel) { m.PrimaryKey = "" },
			want:   []string{ErrMissingPrimaryKey},
		},
		{
			name:   "unknown primary key",
			mutate: func(m *schema.ObjectModel) { m.PrimaryKey = "nope" },
			want:   []string{ErrUnknownPrimaryKey},
		},
		{
			name:   "date primary key",
			mutate: func(m *schema.ObjectModel) { m.Properties[0].Kind = schema.KindDate },
			want:   []string{ErrUnsupportedPrimaryKey},
		},
		{
			name: "list primary key",
			mutate: func(m *schema.ObjectModel) {
				m.Properties[0].IsCollection = true
			},
			want: []string{ErrListPrimaryKey},
		},
		{
			name: "unknown kind",
			mutate: func(m *schema.ObjectModel) {
				m.Properties = append(m.Properties, schema.PropertyDescriptor{Name: "x"})
			},
			want: []string{ErrUnknownKind},
		},
		{
			name: "duplicate property",
			mutate: func(m *schema.ObjectModel) {
				m.Properties = append(m.Properties, schema.PropertyDescriptor{Name: "id", Kind: schema.KindString})
			},
			want: []string{ErrDuplicateProperty},
		},
		{
			name: "object without target",
			mutate: func(m *schema.ObjectModel) {
				m.Properties = append(m.Properties, schema.PropertyDescriptor{Name: "x", Kind: schema.KindObject})
			},
			want: []string{ErrMissingTarget},
		},
		{
			name: "unknown target",
			mutate: func(m *schema.ObjectModel) {
				m.Properties = append(m.Properties, schema.PropertyDescriptor{Name: "x", Kind: schema.KindObject, RelatedType: "Ghost"})
			},
			want: []string{ErrUnknownTarget},
		},
		{
			name: "list of locations must be catalog types",
			mutate: func(m *schema.ObjectModel) {
				m.Properties = append(m.Properties, schema.PropertyDescriptor{
					Name: "homes", Kind: schema.KindObject, RelatedType: schema.LocationType, IsCollection: true,
				})
			},
			want: []string{ErrUnknownTarget},
		},
		{
			name:   "shared scope",
			mutate: func(m *schema.ObjectModel) { m.Scope = schema.ScopeShared },
			want:   []string{ErrInvalidScope},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validPerson()
			tt.mutate(m)
			errs := Validate(catalog(t, m))
			assert.Equal(t, tt.want, codes(errs))
			for _, e := range errs {
				assert.Equal(t, "Person", e.Type)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	a := &schema.ObjectModel{
		TypeName: "A",
		Scope:    schema.ScopeShared,
		Properties: []schema.PropertyDescriptor{
			{Name: "x", Kind: schema.KindObject},
		},
	}
	b := &schema.ObjectModel{
		TypeName:   "B",
		PrimaryKey: "id",
		Properties: []schema.PropertyDescriptor{
			{Name: "id", Kind: schema.KindDouble},
		},
	}

	errs := Validate(catalog(t, a, b))
	assert.Equal(t, []string{ErrInvalidScope, ErrMissingPrimaryKey, ErrMissingTarget, ErrUnsupportedPrimaryKey}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	withField := ValidationError{Type: "Cat", Field: "id", Message: "bad", Code: ErrListPrimaryKey}
	assert.Equal(t, "[E108] Cat.id: bad", withField.Error())

	noField := ValidationError{Type: "Cat", Message: "bad", Code: ErrInvalidScope}
	assert.Equal(t, "[E109] Cat: bad", noField.Error())
}
