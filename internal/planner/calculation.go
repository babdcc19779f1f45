package planner

import (
	"encoding/json"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/selection"
)

// processCalculationWithArgs handles a parameterized calculation. The
// nested selection must be the args+fields form; arguments validate
// against the declared argument set (with alias resolution) and the
// fields selection recurses against the calculation's return
// descriptor.
func (pl *Planner) processCalculationWithArgs(calc *catalog.Calculation, internal string, node selection.Node, p path) (*result, error) {
	if !node.HasArgs {
		return nil, newError(ErrCalculationRequiresArgs, node.Name, p, "")
	}

	args, err := pl.resolveArgs(calc, node, p)
	if err != nil {
		return nil, err
	}

	if pl.catalog.NeedsFieldSelection(calc.Type) && len(node.Children) == 0 {
		return nil, newError(ErrRequiresFieldSelection, node.Name, p, "complex_calculation")
	}

	sub, err := pl.dispatch(pl.catalog.DescriptorOf(calc.Type), node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}

	r := &result{}
	r.load = append(r.load, &LoadSpec{Field: internal, Args: args, Select: sub.sel, Load: sub.load})
	if len(sub.tmpl) > 0 {
		r.tmpl = append(r.tmpl, &TemplateNode{Name: internal, Children: sub.tmpl})
	} else {
		r.tmpl = append(r.tmpl, leafTemplate(internal))
	}
	return r, nil
}

// resolveArgs maps supplied argument names to their declared internal
// names and checks the argument set is complete, closed and
// type-correct.
func (pl *Planner) resolveArgs(calc *catalog.Calculation, node selection.Node, p path) (map[string]any, error) {
	resolved := make(map[string]any, len(node.Args))
	for name, value := range node.Args {
		argName := calc.ResolveArgName(name)
		decl := calc.Args[argName]
		if decl == nil {
			return nil, newError(ErrInvalidCalculationArgs, node.Name, p, "unknown argument "+name)
		}
		if _, dup := resolved[argName]; dup {
			return nil, newError(ErrInvalidCalculationArgs, node.Name, p, "argument "+argName+" given twice")
		}
		if !argValueMatches(decl, value) {
			return nil, newError(ErrInvalidCalculationArgs, node.Name, p,
				"argument "+argName+" expects "+decl.Type.String())
		}
		resolved[argName] = value
	}
	for _, decl := range calc.OrderedArgs() {
		if _, ok := resolved[decl.Name]; ok {
			continue
		}
		if !decl.Nullable && !decl.HasDefault {
			return nil, newError(ErrInvalidCalculationArgs, node.Name, p, "missing argument "+decl.Name)
		}
	}
	return resolved, nil
}

// argValueMatches checks a supplied argument value against its
// declared type. Scalar kinds are checked strictly; structured kinds
// only get a shape check, since deep validation of structured inputs
// belongs to the execution engine.
func argValueMatches(decl *catalog.Argument, v any) bool {
	if v == nil {
		return decl.Nullable
	}
	return valueMatchesType(decl.Type, v)
}

func valueMatchesType(t *catalog.TypeRef, v any) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case catalog.TypeKindList:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if !valueMatchesType(t.OfType, item) {
				return false
			}
		}
		return true
	case catalog.TypeKindScalar:
		return scalarValueMatches(t.Named, v)
	case catalog.TypeKindMap, catalog.TypeKindKeyword, catalog.TypeKindStruct:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

// scalarValueMatches accepts both JSON-decoded values (json.Number,
// string, bool) and shorthand-parsed values (int64, float64).
func scalarValueMatches(named string, v any) bool {
	switch named {
	case "string", "uuid", "date", "datetime", "duration", "atom":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer":
		switch n := v.(type) {
		case json.Number:
			_, err := n.Int64()
			return err == nil
		case int64, int:
			return true
		default:
			return false
		}
	case "float", "decimal":
		switch n := v.(type) {
		case json.Number:
			_, err := n.Float64()
			return err == nil
		case float64, int64, int:
			return true
		default:
			return false
		}
	default:
		return true
	}
}

// processComplexField handles a calculation or aggregate whose return
// shape is itself structured: the nested selection recurses against
// the field's own return descriptor and the whole thing becomes one
// load spec.
func (pl *Planner) processComplexField(internal string, t *catalog.TypeRef, node selection.Node, p path, kind string) (*result, error) {
	if err := requireNonEmpty(node, p, kind); err != nil {
		return nil, err
	}
	sub, err := pl.dispatch(pl.catalog.DescriptorOf(t), node.Children, p.child(node.Name))
	if err != nil {
		return nil, err
	}

	r := &result{}
	r.load = append(r.load, &LoadSpec{Field: internal, Select: sub.sel, Load: sub.load})
	r.tmpl = append(r.tmpl, &TemplateNode{Name: internal, Children: sub.tmpl})
	return r, nil
}
