// Package codegen emits the static client-side type text for a
// resource graph. It walks every resource reachable from the
// requested roots, restricted to an exposure allow-list, and renders
// one definition per reachable resource, struct and union. Output is
// deterministic: the same catalog always yields byte-identical text.
package codegen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/eventbus"
	"github.com/hanpama/fieldplan/internal/events"
	"github.com/hanpama/fieldplan/internal/naming"
)

type Generator struct {
	catalog *catalog.Catalog
	policy  naming.Policy
}

func New(c *catalog.Catalog, policy naming.Policy) *Generator {
	if policy == "" {
		policy = naming.PolicyCamel
	}
	return &Generator{catalog: c, policy: policy}
}

// Generate renders the schema text for the given root resources.
// allowed is the exposure allow-list; a nil allow-list exposes every
// public resource. Roots must themselves be allowed.
func (g *Generator) Generate(ctx context.Context, roots []string, allowed []string) (string, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.GenerateStart{Roots: roots})

	text, err := g.generate(roots, allowed)

	eventbus.Publish(ctx, events.GenerateFinish{
		Roots:    roots,
		Err:      err,
		Duration: time.Since(start),
	})
	return text, err
}

func (g *Generator) generate(roots []string, allowed []string) (string, error) {
	w := &walker{
		catalog:   g.catalog,
		allowed:   g.allowedSet(allowed),
		resources: map[string]bool{},
		structs:   map[string]bool{},
		unions:    map[string]bool{},
	}

	for _, root := range roots {
		res := g.catalog.Resource(root)
		if res == nil {
			return "", fmt.Errorf("unknown root resource %q", root)
		}
		if !w.allowed[root] {
			return "", fmt.Errorf("root resource %q is not in the allow-list", root)
		}
		w.visitResource(res)
	}
	if w.err != nil {
		return "", w.err
	}

	r := &renderer{catalog: g.catalog, allowed: w.allowed, policy: g.policy}
	return r.render(w)
}

func (g *Generator) allowedSet(allowed []string) map[string]bool {
	set := map[string]bool{}
	if allowed == nil {
		for name, res := range g.catalog.Resources {
			if res.Public {
				set[name] = true
			}
		}
		return set
	}
	for _, name := range allowed {
		set[name] = true
	}
	return set
}

// walker computes the set of reachable definitions. The emitted sets
// guarantee exactly one definition per type no matter how many paths
// reach it.
type walker struct {
	catalog *catalog.Catalog
	allowed map[string]bool

	resources map[string]bool
	structs   map[string]bool
	unions    map[string]bool
	err       error
}

func (w *walker) visitResource(res *catalog.Resource) {
	if w.resources[res.Name] {
		return
	}
	w.resources[res.Name] = true

	for _, attr := range res.Attributes {
		if attr.Public {
			w.visitType(attr.Type)
		}
	}
	for _, calc := range res.Calculations {
		if !calc.Public {
			continue
		}
		w.visitType(calc.Type)
		for _, arg := range calc.Args {
			w.visitType(arg.Type)
		}
	}
	for _, agg := range res.Aggregates {
		if agg.Public {
			w.visitType(agg.Type)
		}
	}
	for _, rel := range res.Relationships {
		if !rel.Public || !w.allowed[rel.Destination] {
			continue
		}
		dest := w.catalog.Resource(rel.Destination)
		if dest == nil {
			w.fail(fmt.Errorf("relationship %s.%s points at missing resource %q", res.Name, rel.Name, rel.Destination))
			continue
		}
		w.visitResource(dest)
	}
}

func (w *walker) visitType(t *catalog.TypeRef) {
	if t == nil {
		return
	}
	switch t.Kind {
	case catalog.TypeKindList:
		w.visitType(t.OfType)
	case catalog.TypeKindResource:
		if w.allowed[t.Named] {
			if res := w.catalog.Resource(t.Named); res != nil {
				w.visitResource(res)
			} else {
				w.fail(fmt.Errorf("type references missing resource %q", t.Named))
			}
		}
	case catalog.TypeKindStruct:
		if res := w.catalog.Resource(t.Named); res != nil {
			if w.allowed[t.Named] {
				w.visitResource(res)
			}
			return
		}
		w.visitStruct(t.Named)
	case catalog.TypeKindUnion:
		w.visitUnion(t.Named)
	case catalog.TypeKindMap, catalog.TypeKindKeyword, catalog.TypeKindTuple:
		for _, f := range t.Fields {
			w.visitType(f.Type)
		}
	}
}

func (w *walker) visitStruct(name string) {
	if w.structs[name] {
		return
	}
	def := w.catalog.Struct(name)
	if def == nil {
		w.fail(fmt.Errorf("type references missing struct %q", name))
		return
	}
	w.structs[name] = true
	for _, f := range def.Fields {
		w.visitType(f.Type)
	}
}

func (w *walker) visitUnion(name string) {
	if w.unions[name] {
		return
	}
	u := w.catalog.Union(name)
	if u == nil {
		w.fail(fmt.Errorf("type references missing union %q", name))
		return
	}
	w.unions[name] = true
	for _, m := range u.Members {
		w.visitType(m.Type)
	}
}

func (w *walker) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
