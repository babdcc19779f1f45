package catalog

// TypeKind is the closed set of type constructors in the taxonomy.
type TypeKind string

const (
	TypeKindScalar   TypeKind = "SCALAR"   // Named is a scalar type name
	TypeKindList     TypeKind = "LIST"     // OfType is the element type
	TypeKindMap      TypeKind = "MAP"      // Fields optionally constrain keys
	TypeKindKeyword  TypeKind = "KEYWORD"  // atom-keyed map; same field handling as MAP
	TypeKindTuple    TypeKind = "TUPLE"    // Fields declare the named slots
	TypeKindStruct   TypeKind = "STRUCT"   // Named references Catalog.Structs
	TypeKindUnion    TypeKind = "UNION"    // Named references Catalog.Unions
	TypeKindResource TypeKind = "RESOURCE" // Named references Catalog.Resources
	TypeKindAny      TypeKind = "ANY"
)

// TypeRef represents a type expression (e.g. string, array<Comment>,
// tuple with named slots).
type TypeRef struct {
	Kind   TypeKind
	OfType *TypeRef
	Named  string
	Fields []*FieldSpec
}

func ScalarType(name string) *TypeRef   { return &TypeRef{Kind: TypeKindScalar, Named: name} }
func ListType(of *TypeRef) *TypeRef     { return &TypeRef{Kind: TypeKindList, OfType: of} }
func ResourceType(name string) *TypeRef { return &TypeRef{Kind: TypeKindResource, Named: name} }
func StructType(name string) *TypeRef   { return &TypeRef{Kind: TypeKindStruct, Named: name} }
func UnionType(name string) *TypeRef    { return &TypeRef{Kind: TypeKindUnion, Named: name} }
func AnyType() *TypeRef                 { return &TypeRef{Kind: TypeKindAny} }

// IsList reports whether the type is a list.
func (t *TypeRef) IsList() bool { return t != nil && t.Kind == TypeKindList }

// Unwrap removes one list layer and returns the element type.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeKindList {
		return t.OfType
	}
	return t
}

// Elem returns the innermost non-list type.
func (t *TypeRef) Elem() *TypeRef {
	current := t
	for current != nil && current.Kind == TypeKindList {
		current = current.OfType
	}
	return current
}

// Field returns the declared field constraint with the given name,
// or nil.
func (t *TypeRef) Field(name string) *FieldSpec {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ResolveName maps a declared slot alias back to its internal name.
// Unaliased names pass through unchanged.
func (t *TypeRef) ResolveName(name string) string {
	for _, f := range t.Fields {
		if f.ExternalName == name {
			return f.Name
		}
	}
	return name
}

func (t *TypeRef) String() string {
	if t == nil {
		return "Unknown"
	}
	switch t.Kind {
	case TypeKindList:
		return "array<" + t.OfType.String() + ">"
	case TypeKindMap:
		return "map"
	case TypeKindKeyword:
		return "keyword"
	case TypeKindTuple:
		return "tuple"
	case TypeKindAny:
		return "any"
	default:
		return t.Named
	}
}
