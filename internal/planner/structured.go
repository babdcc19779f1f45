package planner

import (
	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/selection"
)

// processTuple resolves a selection against a tuple's declared named
// slots. Each slot's own constraints become the descriptor for its
// nested fields.
func (pl *Planner) processTuple(t *catalog.TypeRef, tree selection.Tree, p path) (*result, error) {
	return pl.processFieldSpecs(t, tree, p, nil)
}

// processTypedStruct is shaped like tuple processing but resolves
// member names through the struct's own external-name table,
// independent of any owning resource's mapping.
func (pl *Planner) processTypedStruct(def *catalog.StructDef, tree selection.Tree, p path) (*result, error) {
	t := &catalog.TypeRef{Kind: catalog.TypeKindStruct, Named: def.Name}
	for _, f := range def.OrderedFields() {
		t.Fields = append(t.Fields, f)
	}
	return pl.processFieldSpecs(t, tree, p, def.ResolveName)
}

// processFieldSpecs validates a selection level against declared
// field specs (closed maps, tuples, typed structs) and recurses into
// each slot's type.
func (pl *Planner) processFieldSpecs(t *catalog.TypeRef, tree selection.Tree, p path, resolve func(string) string) (*result, error) {
	if resolve == nil {
		resolve = t.ResolveName
	}
	if err := checkDuplicates(tree, p, resolve); err != nil {
		return nil, err
	}

	r := &result{}
	for _, node := range tree {
		name := resolve(node.Name)
		fs := t.Field(name)
		if fs == nil {
			return nil, newError(ErrUnknownField, node.Name, p, "")
		}
		if node.HasArgs {
			return nil, newError(ErrInvalidFieldSelection, node.Name, p, "field takes no arguments")
		}

		if !node.Nested {
			if pl.catalog.NeedsFieldSelection(fs.Type) {
				return nil, newError(ErrRequiresFieldSelection, node.Name, p, pl.selectionKind(fs.Type))
			}
			r.sel = append(r.sel, name)
			r.tmpl = append(r.tmpl, leafTemplate(name))
			continue
		}
		if len(node.Children) == 0 {
			return nil, newError(ErrRequiresFieldSelection, node.Name, p, pl.selectionKind(fs.Type))
		}

		sub, err := pl.dispatch(pl.catalog.DescriptorOf(fs.Type), node.Children, p.child(name))
		if err != nil {
			return nil, err
		}
		if len(sub.load) > 0 {
			r.load = append(r.load, &LoadSpec{Field: name, Load: sub.load})
		}
		r.tmpl = append(r.tmpl, &TemplateNode{Name: name, Children: sub.tmpl})
	}
	return r, nil
}
