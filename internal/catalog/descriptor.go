package catalog

// DescriptorKind is the closed variant set of return type descriptors.
// Every position in the selection graph maps to exactly one kind, and
// each kind is owned by exactly one planner sub-processor.
type DescriptorKind string

const (
	DescriptorResource       DescriptorKind = "RESOURCE"
	DescriptorResourceArray  DescriptorKind = "RESOURCE_ARRAY"
	DescriptorPrimitive      DescriptorKind = "PRIMITIVE"
	DescriptorPrimitiveArray DescriptorKind = "PRIMITIVE_ARRAY"
	DescriptorAny            DescriptorKind = "ANY"
)

// Descriptor describes the shape of one position in the type graph.
// For the resource kinds Resource is set; for the primitive kinds
// Type holds the innermost non-resource type expression with its
// constraints intact.
type Descriptor struct {
	Kind     DescriptorKind
	Resource *Resource
	Type     *TypeRef
}

// IsArray reports whether the descriptor is one of the array forms.
func (d Descriptor) IsArray() bool {
	return d.Kind == DescriptorResourceArray || d.Kind == DescriptorPrimitiveArray
}

// DescriptorOf computes the return type descriptor for a type
// expression. Computed fresh on each visit; descriptors are plain
// values and never cached.
func (c *Catalog) DescriptorOf(t *TypeRef) Descriptor {
	if t == nil {
		return Descriptor{Kind: DescriptorAny}
	}
	switch t.Kind {
	case TypeKindAny:
		return Descriptor{Kind: DescriptorAny}
	case TypeKindResource:
		return Descriptor{Kind: DescriptorResource, Resource: c.Resources[t.Named]}
	case TypeKindStruct:
		// A struct whose name shadows a resource is treated as that
		// resource (4.3: Struct with a resource target).
		if res, ok := c.Resources[t.Named]; ok {
			return Descriptor{Kind: DescriptorResource, Resource: res}
		}
		return Descriptor{Kind: DescriptorPrimitive, Type: t}
	case TypeKindList:
		inner := c.DescriptorOf(t.OfType)
		switch inner.Kind {
		case DescriptorResource:
			return Descriptor{Kind: DescriptorResourceArray, Resource: inner.Resource}
		case DescriptorResourceArray, DescriptorPrimitiveArray:
			// Nested arrays collapse; the element shape is what matters.
			return inner
		case DescriptorAny:
			return inner
		default:
			return Descriptor{Kind: DescriptorPrimitiveArray, Type: inner.Type}
		}
	default:
		return Descriptor{Kind: DescriptorPrimitive, Type: t}
	}
}
