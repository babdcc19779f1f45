package catalog

// Classification is the closed set of field kinds. It is a pure
// function of (resource, field name) and the single source of truth
// for both the planner and the schema generator.
type Classification string

const (
	ClassAttribute             Classification = "attribute"
	ClassCalculation           Classification = "calculation"
	ClassCalculationWithArgs   Classification = "calculation_with_args"
	ClassCalculationComplex    Classification = "calculation_complex"
	ClassAggregate             Classification = "aggregate"
	ClassComplexAggregate      Classification = "complex_aggregate"
	ClassRelationship          Classification = "relationship"
	ClassEmbeddedResource      Classification = "embedded_resource"
	ClassEmbeddedResourceArray Classification = "embedded_resource_array"
	ClassUnionAttribute        Classification = "union_attribute"
	ClassTypedStruct           Classification = "typed_struct"
	ClassTuple                 Classification = "tuple"
	ClassNotFound              Classification = "not_found"
)

// Classify determines the field kind for a field symbol on a
// resource. The name may be given in either internal or external
// form; aliases resolve to the same classification.
func (c *Catalog) Classify(res *Resource, field string) Classification {
	name := res.ResolveName(field)

	if attr, ok := res.Attributes[name]; ok {
		return c.classifyAttribute(attr.Type)
	}
	if calc, ok := res.Calculations[name]; ok {
		if len(calc.Args) > 0 {
			return ClassCalculationWithArgs
		}
		if c.needsComplexProcessing(calc.Type) {
			return ClassCalculationComplex
		}
		return ClassCalculation
	}
	if agg, ok := res.Aggregates[name]; ok {
		if c.needsComplexProcessing(agg.Type) {
			return ClassComplexAggregate
		}
		return ClassAggregate
	}
	if _, ok := res.Relationships[name]; ok {
		return ClassRelationship
	}
	return ClassNotFound
}

func (c *Catalog) classifyAttribute(t *TypeRef) Classification {
	elem := t.Elem()
	if elem == nil {
		return ClassAttribute
	}
	switch elem.Kind {
	case TypeKindResource:
		if t.IsList() {
			return ClassEmbeddedResourceArray
		}
		return ClassEmbeddedResource
	case TypeKindStruct:
		if _, ok := c.Resources[elem.Named]; ok {
			if t.IsList() {
				return ClassEmbeddedResourceArray
			}
			return ClassEmbeddedResource
		}
		return ClassTypedStruct
	case TypeKindUnion:
		return ClassUnionAttribute
	case TypeKindTuple:
		return ClassTuple
	default:
		return ClassAttribute
	}
}

// needsComplexProcessing reports whether a calculation or aggregate
// return type requires recursive field processing rather than a flat
// fetch: resources, unions, structs, tuples and constrained maps,
// at any list depth.
func (c *Catalog) needsComplexProcessing(t *TypeRef) bool {
	elem := t.Elem()
	if elem == nil {
		return false
	}
	switch elem.Kind {
	case TypeKindResource, TypeKindStruct, TypeKindUnion, TypeKindTuple:
		return true
	case TypeKindMap, TypeKindKeyword:
		return len(elem.Fields) > 0
	default:
		return false
	}
}

// NeedsFieldSelection reports whether a value of the given type can
// only be requested with an explicit nested field selection. Plain
// scalars and unconstrained maps, keywords and tuples need none.
func (c *Catalog) NeedsFieldSelection(t *TypeRef) bool {
	elem := t.Elem()
	if elem == nil {
		return false
	}
	switch elem.Kind {
	case TypeKindResource, TypeKindUnion:
		return true
	case TypeKindStruct:
		return true
	case TypeKindMap, TypeKindKeyword, TypeKindTuple:
		return len(elem.Fields) > 0
	default:
		return false
	}
}
