package planner

import (
	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/selection"
)

// processResource handles a selection level against a resource: every
// entry resolves through the resource's name mapping, is classified,
// and routes to the handler for its field kind. Duplicate detection
// runs first, over resolved names, so two aliases of one field can
// never both pass.
func (pl *Planner) processResource(res *catalog.Resource, tree selection.Tree, p path) (*result, error) {
	if err := checkDuplicates(tree, p, res.ResolveName); err != nil {
		return nil, err
	}

	r := &result{}
	for _, node := range tree {
		internal := res.ResolveName(node.Name)
		class := pl.catalog.Classify(res, internal)
		if !pl.fieldVisible(res, internal, class) {
			class = catalog.ClassNotFound
		}

		switch class {
		case catalog.ClassAttribute:
			if node.Nested || node.HasArgs {
				return nil, newError(ErrFieldDoesNotSupportNesting, node.Name, p, "attribute")
			}
			r.sel = append(r.sel, internal)
			r.tmpl = append(r.tmpl, leafTemplate(internal))

		case catalog.ClassCalculation:
			if node.Nested || node.HasArgs {
				return nil, newError(ErrFieldDoesNotSupportNesting, node.Name, p, "calculation")
			}
			r.load = append(r.load, &LoadSpec{Field: internal})
			r.tmpl = append(r.tmpl, leafTemplate(internal))

		case catalog.ClassAggregate:
			if node.Nested || node.HasArgs {
				return nil, newError(ErrFieldDoesNotSupportNesting, node.Name, p, "aggregate")
			}
			r.load = append(r.load, &LoadSpec{Field: internal})
			r.tmpl = append(r.tmpl, leafTemplate(internal))

		case catalog.ClassRelationship:
			sub, err := pl.processRelationship(res.Relationships[internal], node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassEmbeddedResource, catalog.ClassEmbeddedResourceArray:
			sub, err := pl.processEmbedded(res.Attributes[internal], internal, node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassCalculationWithArgs:
			sub, err := pl.processCalculationWithArgs(res.Calculations[internal], internal, node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassCalculationComplex:
			calc := res.Calculations[internal]
			sub, err := pl.processComplexField(internal, calc.Type, node, p, "complex_calculation")
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassComplexAggregate:
			agg := res.Aggregates[internal]
			sub, err := pl.processComplexField(internal, agg.Type, node, p, "complex_aggregate")
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassUnionAttribute:
			sub, err := pl.processUnionAttribute(res.Attributes[internal], internal, node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassTypedStruct:
			sub, err := pl.processStructAttribute(res.Attributes[internal], internal, node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		case catalog.ClassTuple:
			sub, err := pl.processTupleAttribute(res.Attributes[internal], internal, node, p)
			if err != nil {
				return nil, err
			}
			r.merge(sub)

		default:
			return nil, newError(ErrUnknownField, node.Name, p, "")
		}
	}
	return r, nil
}

func (pl *Planner) fieldVisible(res *catalog.Resource, internal string, class catalog.Classification) bool {
	switch class {
	case catalog.ClassAttribute, catalog.ClassEmbeddedResource, catalog.ClassEmbeddedResourceArray,
		catalog.ClassUnionAttribute, catalog.ClassTypedStruct, catalog.ClassTuple:
		return res.Attributes[internal].Public
	case catalog.ClassCalculation, catalog.ClassCalculationWithArgs, catalog.ClassCalculationComplex:
		return res.Calculations[internal].Public
	case catalog.ClassAggregate, catalog.ClassComplexAggregate:
		return res.Aggregates[internal].Public
	case catalog.ClassRelationship:
		return res.Relationships[internal].Public
	default:
		return false
	}
}

// processRelationship recurses into the destination resource. The
// relationship becomes one load spec carrying the nested select and
// load instructions.
func (pl *Planner) processRelationship(rel *catalog.Relationship, node selection.Node, p path) (*result, error) {
	if err := requireNonEmpty(node, p, "relationship"); err != nil {
		return nil, err
	}
	dest := pl.catalog.Resource(rel.Destination)
	if dest == nil {
		return nil, newError(ErrUnsupportedFieldCombo, node.Name, p, "relationship destination not in catalog")
	}
	sub, err := pl.processResource(dest, node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}
	r := &result{}
	r.load = append(r.load, &LoadSpec{Field: rel.Name, Select: sub.sel, Load: sub.load})
	r.tmpl = append(r.tmpl, &TemplateNode{Name: rel.Name, Children: sub.tmpl})
	return r, nil
}

// processEmbedded recurses into an embedded resource. Embedded
// attributes come back with the owning value, so only nested loadable
// fields propagate into load; the field itself is always selected.
func (pl *Planner) processEmbedded(attr *catalog.Attribute, internal string, node selection.Node, p path) (*result, error) {
	if err := requireNonEmpty(node, p, "embedded_resource"); err != nil {
		return nil, err
	}
	embedded := pl.catalog.Resource(attr.Type.Elem().Named)
	if embedded == nil {
		return nil, newError(ErrUnsupportedFieldCombo, node.Name, p, "embedded resource not in catalog")
	}
	sub, err := pl.processResource(embedded, node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}
	return wrapInlineValue(internal, sub), nil
}

// processUnionAttribute selects the whole union value and recurses
// into the member selection; only embedded-resource members can add
// load instructions.
func (pl *Planner) processUnionAttribute(attr *catalog.Attribute, internal string, node selection.Node, p path) (*result, error) {
	if err := requireNonEmpty(node, p, "union"); err != nil {
		return nil, err
	}
	u := pl.catalog.Union(attr.Type.Elem().Named)
	if u == nil {
		return nil, newError(ErrUnsupportedFieldCombo, node.Name, p, "union type not in catalog")
	}
	sub, err := pl.processUnion(u, node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}
	return wrapInlineValue(internal, sub), nil
}

func (pl *Planner) processStructAttribute(attr *catalog.Attribute, internal string, node selection.Node, p path) (*result, error) {
	if err := requireNonEmpty(node, p, "typed_struct"); err != nil {
		return nil, err
	}
	def := pl.catalog.Struct(attr.Type.Elem().Named)
	if def == nil {
		return nil, newError(ErrUnsupportedFieldCombo, node.Name, p, "struct type not in catalog")
	}
	sub, err := pl.processTypedStruct(def, node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}
	return wrapInlineValue(internal, sub), nil
}

func (pl *Planner) processTupleAttribute(attr *catalog.Attribute, internal string, node selection.Node, p path) (*result, error) {
	if err := requireNonEmpty(node, p, "tuple"); err != nil {
		return nil, err
	}
	sub, err := pl.processTuple(attr.Type.Elem(), node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}
	return wrapInlineValue(internal, sub), nil
}

// wrapInlineValue builds the result for a field whose value is stored
// inline (structs, tuples): the field itself is selected, nested
// loads are re-keyed under it and the template mirrors the nesting.
func wrapInlineValue(internal string, sub *result) *result {
	r := &result{}
	r.sel = append(r.sel, internal)
	if len(sub.load) > 0 {
		r.load = append(r.load, &LoadSpec{Field: internal, Load: sub.load})
	}
	r.tmpl = append(r.tmpl, &TemplateNode{Name: internal, Children: sub.tmpl})
	return r
}
