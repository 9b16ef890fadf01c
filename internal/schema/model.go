package schema

// Related type names that receive native single-value handling instead of
// relationship encoding.
const (
	LocationType = "GeoLocation"
	AssetType    = "BinaryAsset"
)

// PropertyDescriptor describes one persisted property of an object type.
type PropertyDescriptor struct {
	Name         string
	Kind         Kind
	IsCollection bool

	// RelatedType names the target type when Kind is KindObject.
	RelatedType string
}

// ObjectModel is the schema of one object type.
// Owned by the persistence layer; read-only during projection.
type ObjectModel struct {
	TypeName   string
	Properties []PropertyDescriptor // declaration order

	// PrimaryKey names the primary-key property. Empty means none declared.
	PrimaryKey string

	// Scope is the database this type synchronizes into.
	Scope Scope
}

// PrimaryKeyProperty returns the descriptor of the primary key.
// Returns false if no primary key is declared or it names no property.
func (m *ObjectModel) PrimaryKeyProperty() (PropertyDescriptor, bool) {
	if m.PrimaryKey == "" {
		return PropertyDescriptor{}, false
	}
	return m.Property(m.PrimaryKey)
}

// Property looks up a property by name.
func (m *ObjectModel) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range m.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}
