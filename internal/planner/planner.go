// Package planner compiles a client field selection against the
// resource catalog into a projection plan: the flat select set and
// nested load specs handed to the execution engine, plus the ordered
// template used to reshape fetched data into the response.
//
// The planner is a pure function of (catalog, selection); it holds no
// mutable state, so one Planner may serve any number of concurrent
// requests. Errors short-circuit: the first request-shape problem is
// returned as a single structured *Error and no partial plan is ever
// produced.
package planner

import (
	"context"
	"time"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/eventbus"
	"github.com/hanpama/fieldplan/internal/events"
	"github.com/hanpama/fieldplan/internal/selection"
)

type Planner struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Planner {
	return &Planner{catalog: c}
}

// Process compiles one request. On failure the returned error is
// always a *Error carrying the dotted path of the offending field.
func (pl *Planner) Process(ctx context.Context, resourceName, actionName string, tree selection.Tree) (*Plan, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.PlanStart{Resource: resourceName, Action: actionName})

	plan, err := pl.process(resourceName, actionName, tree)

	eventbus.Publish(ctx, events.PlanFinish{
		Resource: resourceName,
		Action:   actionName,
		Err:      err,
		Duration: time.Since(start),
	})
	return plan, err
}

func (pl *Planner) process(resourceName, actionName string, tree selection.Tree) (*Plan, error) {
	res := pl.catalog.Resource(resourceName)
	if res == nil || !res.Public {
		return nil, newErrorAt(ErrActionNotFound, actionName, nil, "unknown resource "+resourceName)
	}
	action := res.Actions[actionName]
	if action == nil {
		return nil, newErrorAt(ErrActionNotFound, actionName, nil, "no action "+actionName+" on "+resourceName)
	}

	desc := pl.catalog.DescriptorOf(action.Type)
	r, err := pl.dispatch(desc, tree, path{})
	if err != nil {
		return nil, err
	}
	return &Plan{Select: r.sel, Load: r.load, Template: r.tmpl}, nil
}

// dispatch routes a (descriptor, subtree, path) to the sub-processor
// owning the descriptor's kind. It is the mutual-recursion backbone:
// every sub-processor re-enters here for nested positions.
func (pl *Planner) dispatch(desc catalog.Descriptor, tree selection.Tree, p path) (*result, error) {
	switch desc.Kind {
	case catalog.DescriptorResource, catalog.DescriptorResourceArray:
		if desc.Resource == nil {
			return nil, newErrorAt(ErrUnsupportedFieldCombo, "", p, "descriptor names an unregistered resource")
		}
		return pl.processResource(desc.Resource, tree, p)
	case catalog.DescriptorAny:
		return passthrough(tree), nil
	default:
		return pl.processPrimitive(desc.Type, tree, p)
	}
}

// processPrimitive handles the non-resource descriptor kinds: maps,
// tuples, structs, unions and plain scalars. Array descriptors arrive
// already unwrapped to their element type.
func (pl *Planner) processPrimitive(t *catalog.TypeRef, tree selection.Tree, p path) (*result, error) {
	if t == nil {
		return passthrough(tree), nil
	}
	switch t.Kind {
	case catalog.TypeKindList:
		return pl.processPrimitive(t.Elem(), tree, p)
	case catalog.TypeKindMap, catalog.TypeKindKeyword:
		if len(t.Fields) == 0 {
			// Open map: nothing to validate against, pass the
			// requested shape through.
			return passthrough(tree), nil
		}
		return pl.processFieldSpecs(t, tree, p, nil)
	case catalog.TypeKindTuple:
		return pl.processTuple(t, tree, p)
	case catalog.TypeKindStruct:
		def := pl.catalog.Struct(t.Named)
		if def == nil {
			return nil, newErrorAt(ErrUnsupportedFieldCombo, "", p, "unregistered struct type "+t.Named)
		}
		if len(tree) == 0 {
			return nil, newErrorAt(ErrRequiresFieldSelection, "", p, "typed_struct")
		}
		return pl.processTypedStruct(def, tree, p)
	case catalog.TypeKindUnion:
		u := pl.catalog.Union(t.Named)
		if u == nil {
			return nil, newErrorAt(ErrUnsupportedFieldCombo, "", p, "unregistered union type "+t.Named)
		}
		return pl.processUnion(u, tree, p)
	case catalog.TypeKindAny:
		return passthrough(tree), nil
	default:
		// Plain scalar: any selection on it is malformed.
		if len(tree) > 0 {
			return nil, newErrorAt(ErrInvalidFieldSelection, "", p, "scalar value takes no field selection")
		}
		return &result{}, nil
	}
}

// passthrough copies the requested shape verbatim into the template.
// Nothing is selected or loaded; the raw value travels as-is.
func passthrough(tree selection.Tree) *result {
	r := &result{}
	for _, node := range tree {
		r.tmpl = append(r.tmpl, templateOf(node))
	}
	return r
}

func templateOf(node selection.Node) *TemplateNode {
	t := &TemplateNode{Name: node.Name}
	for _, child := range node.Children {
		t.Children = append(t.Children, templateOf(child))
	}
	return t
}

// selectionKind names the field kind a type needs selection for,
// used as the detail of requires_field_selection errors.
func (pl *Planner) selectionKind(t *catalog.TypeRef) string {
	elem := t.Elem()
	if elem == nil {
		return "field"
	}
	switch elem.Kind {
	case catalog.TypeKindResource:
		return "embedded_resource"
	case catalog.TypeKindStruct:
		if pl.catalog.Resource(elem.Named) != nil {
			return "embedded_resource"
		}
		return "typed_struct"
	case catalog.TypeKindUnion:
		return "union"
	case catalog.TypeKindTuple:
		return "tuple"
	case catalog.TypeKindMap, catalog.TypeKindKeyword:
		return "map"
	default:
		return "field"
	}
}
