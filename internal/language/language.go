// Package language parses the GraphQL-flavored selection shorthand
// accepted as an alternative to the JSON wire format:
//
//	{ user { profile { name } comments { body } } }
//
// Field arguments map onto the parameterized-calculation form, so
// `summary(length: 10)` selects the summary calculation with
// args {length: 10}.
package language

import (
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/hanpama/fieldplan/internal/selection"
)

// ParseSelection parses the shorthand into a selection tree.
func ParseSelection(source string) (selection.Tree, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("selection shorthand must contain exactly one selection set")
	}
	op := doc.Operations[0]
	if op.Operation != ast.Query || op.Name != "" {
		return nil, fmt.Errorf("selection shorthand must be a bare selection set")
	}
	return fromSelectionSet(op.SelectionSet)
}

func fromSelectionSet(set ast.SelectionSet) (selection.Tree, error) {
	var tree selection.Tree
	for _, sel := range set {
		field, ok := sel.(*ast.Field)
		if !ok {
			return nil, fmt.Errorf("fragments are not supported in selection shorthand")
		}
		if field.Alias != "" && field.Alias != field.Name {
			return nil, fmt.Errorf("aliases are not supported in selection shorthand")
		}
		node := selection.Node{Name: field.Name}
		if len(field.SelectionSet) > 0 {
			children, err := fromSelectionSet(field.SelectionSet)
			if err != nil {
				return nil, err
			}
			node.Children = children
			node.Nested = true
		}
		if len(field.Arguments) > 0 {
			args := make(map[string]any, len(field.Arguments))
			for _, arg := range field.Arguments {
				value, err := fromValue(arg.Value)
				if err != nil {
					return nil, err
				}
				args[arg.Name] = value
			}
			node.Args = args
			node.HasArgs = true
		}
		tree = append(tree, node)
	}
	return tree, nil
}

func fromValue(v *ast.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Kind {
	case ast.NullValue:
		return nil, nil
	case ast.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", v.Raw, err)
		}
		return n, nil
	case ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", v.Raw, err)
		}
		return f, nil
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return v.Raw, nil
	case ast.BooleanValue:
		return v.Raw == "true", nil
	case ast.ListValue:
		var list []any
		for _, child := range v.Children {
			item, err := fromValue(child.Value)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case ast.ObjectValue:
		m := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			item, err := fromValue(child.Value)
			if err != nil {
				return nil, err
			}
			m[child.Name] = item
		}
		return m, nil
	case ast.Variable:
		return nil, fmt.Errorf("variables are not supported in selection shorthand")
	default:
		return nil, fmt.Errorf("unsupported value kind %d", v.Kind)
	}
}
