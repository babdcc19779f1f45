package planner

import (
	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/selection"
)

// processUnion handles the member selection of a tagged union. A bare
// member leaf is valid only when the member's type needs no field
// selection; a member given nested fields recurses against its own
// descriptor. Requesting one member twice, in any mix of forms, is a
// duplicate.
func (pl *Planner) processUnion(u *catalog.UnionDef, tree selection.Tree, p path) (*result, error) {
	if err := checkDuplicates(tree, p, nil); err != nil {
		return nil, err
	}

	r := &result{}
	for _, node := range tree {
		member := u.Members[node.Name]
		if member == nil {
			return nil, newError(ErrUnknownField, node.Name, p, "no member "+node.Name+" in union "+u.Name)
		}
		if node.HasArgs {
			return nil, newError(ErrInvalidUnionFieldFormat, node.Name, p, "union members take no arguments")
		}

		if !node.Nested {
			if pl.catalog.NeedsFieldSelection(member.Type) {
				return nil, newError(ErrRequiresFieldSelection, node.Name, p, pl.selectionKind(member.Type))
			}
			r.tmpl = append(r.tmpl, leafTemplate(node.Name))
			continue
		}
		if len(node.Children) == 0 {
			return nil, newError(ErrRequiresFieldSelection, node.Name, p, pl.selectionKind(member.Type))
		}

		desc := pl.catalog.DescriptorOf(member.Type)
		sub, err := pl.dispatch(desc, node.Children, p.child(node.Name))
		if err != nil {
			return nil, err
		}
		// The union value is fetched whole along with its owning
		// field, so member selects vanish here; only an embedded
		// resource member can demand extra loads.
		if len(sub.load) > 0 &&
			(desc.Kind == catalog.DescriptorResource || desc.Kind == catalog.DescriptorResourceArray) {
			r.load = append(r.load, &LoadSpec{Field: member.Name, Load: sub.load})
		}
		r.tmpl = append(r.tmpl, &TemplateNode{Name: member.Name, Children: sub.tmpl})
	}
	return r, nil
}
