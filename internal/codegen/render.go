package codegen

import (
	"strings"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/naming"
)

// tsScalar maps the catalog's primitive type names to client wire
// types. Everything temporal or symbolic travels as a string.
var tsScalar = map[string]string{
	"string":   "string",
	"uuid":     "string",
	"date":     "string",
	"datetime": "string",
	"duration": "string",
	"atom":     "string",
	"integer":  "number",
	"float":    "number",
	"decimal":  "number",
	"boolean":  "boolean",
}

type renderer struct {
	catalog *catalog.Catalog
	allowed map[string]bool
	policy  naming.Policy
}

func (r *renderer) render(w *walker) (string, error) {
	var b strings.Builder
	b.WriteString("// Generated by fieldplan. DO NOT EDIT.\n\n")

	for _, name := range sortedNames(w.resources) {
		r.renderResource(&b, r.catalog.Resource(name))
	}
	for _, name := range sortedNames(w.structs) {
		r.renderStruct(&b, r.catalog.Struct(name))
	}
	for _, name := range sortedNames(w.unions) {
		r.renderUnion(&b, r.catalog.Union(name))
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// externalName picks the client-facing name of a field. A declared
// alias is already the external spelling and passes through verbatim;
// unaliased internal names run through the naming policy.
func (r *renderer) externalName(internal, alias string) string {
	if alias != "" {
		return alias
	}
	return naming.Format(internal, r.policy)
}

// refAllowed reports whether a type expression references only
// exposed resources. Fields whose types leak an internal-only
// resource are omitted from the output entirely.
func (r *renderer) refAllowed(t *catalog.TypeRef) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case catalog.TypeKindList:
		return r.refAllowed(t.OfType)
	case catalog.TypeKindResource:
		return r.allowed[t.Named]
	case catalog.TypeKindStruct:
		if r.catalog.Resource(t.Named) != nil {
			return r.allowed[t.Named]
		}
		def := r.catalog.Struct(t.Named)
		if def == nil {
			return false
		}
		for _, f := range def.Fields {
			if !r.refAllowed(f.Type) {
				return false
			}
		}
		return true
	case catalog.TypeKindUnion:
		// Unions stay exposed; disallowed members are dropped
		// individually when the union is rendered.
		return true
	case catalog.TypeKindMap, catalog.TypeKindKeyword, catalog.TypeKindTuple:
		for _, f := range t.Fields {
			if !r.refAllowed(f.Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// ----- resource rendering -----

func (r *renderer) renderResource(b *strings.Builder, res *catalog.Resource) {
	r.renderFieldNameUnion(b, res)
	r.renderResourceSchema(b, res)
	if res.Embedded {
		r.renderInputSchema(b, res)
	}
}

// renderFieldNameUnion emits the union of flat field names: plain
// attributes, simple calculations and simple aggregates. Client
// tooling uses it for compile-time field-name validation.
func (r *renderer) renderFieldNameUnion(b *strings.Builder, res *catalog.Resource) {
	var names []string
	for _, attr := range res.OrderedAttributes() {
		if attr.Public && r.catalog.Classify(res, attr.Name) == catalog.ClassAttribute {
			names = append(names, r.externalName(attr.Name, attr.ExternalName))
		}
	}
	for _, calc := range res.OrderedCalculations() {
		if calc.Public && r.catalog.Classify(res, calc.Name) == catalog.ClassCalculation {
			names = append(names, r.externalName(calc.Name, calc.ExternalName))
		}
	}
	for _, agg := range res.OrderedAggregates() {
		if agg.Public && r.catalog.Classify(res, agg.Name) == catalog.ClassAggregate {
			names = append(names, r.externalName(agg.Name, agg.ExternalName))
		}
	}

	b.WriteString("export type ")
	b.WriteString(res.Name)
	b.WriteString("FieldName =")
	if len(names) == 0 {
		b.WriteString(" never;\n\n")
		return
	}
	for i, name := range names {
		if i > 0 {
			b.WriteString(" |")
		}
		b.WriteString(" \"" + name + "\"")
	}
	b.WriteString(";\n\n")
}

func (r *renderer) renderResourceSchema(b *strings.Builder, res *catalog.Resource) {
	b.WriteString("export type ")
	b.WriteString(res.Name)
	b.WriteString("Schema = {\n")
	b.WriteString("  __primitiveFields: " + res.Name + "FieldName;\n")

	for _, attr := range res.OrderedAttributes() {
		if !attr.Public || !r.refAllowed(attr.Type) {
			continue
		}
		r.renderAttributeField(b, res, attr)
	}
	for _, calc := range res.OrderedCalculations() {
		if !calc.Public || !r.refAllowed(calc.Type) {
			continue
		}
		r.renderCalculationField(b, res, calc)
	}
	for _, agg := range res.OrderedAggregates() {
		if !agg.Public || !r.refAllowed(agg.Type) {
			continue
		}
		r.renderAggregateField(b, res, agg)
	}
	for _, rel := range res.OrderedRelationships() {
		if !rel.Public || !r.allowed[rel.Destination] {
			continue
		}
		name := r.externalName(rel.Name, rel.ExternalName)
		b.WriteString("  " + name + ": { __type: \"Relationship\"; __array: " +
			boolText(rel.Many) + "; __resource: " + rel.Destination + "Schema };\n")
	}

	b.WriteString("};\n\n")
}

func (r *renderer) renderAttributeField(b *strings.Builder, res *catalog.Resource, attr *catalog.Attribute) {
	name := r.externalName(attr.Name, attr.ExternalName)
	elem := attr.Type.Elem()
	array := attr.Type.IsList()

	switch r.catalog.Classify(res, attr.Name) {
	case catalog.ClassEmbeddedResource, catalog.ClassEmbeddedResourceArray:
		b.WriteString("  " + name + ": { __type: \"Resource\"; __array: " + boolText(array) +
			"; __resource: " + elem.Named + "Schema };\n")
	case catalog.ClassUnionAttribute:
		b.WriteString("  " + name + ": { __type: \"Union\"; __array: " + boolText(array) +
			"; __resource: " + elem.Named + "Schema; __primitiveFields: " + elem.Named + "PrimitiveMember };\n")
	default:
		b.WriteString("  " + name + ": " + r.tsNullable(attr.Type, attr.Nullable) + ";\n")
	}
}

func (r *renderer) renderCalculationField(b *strings.Builder, res *catalog.Resource, calc *catalog.Calculation) {
	name := r.externalName(calc.Name, calc.ExternalName)
	if r.catalog.Classify(res, calc.Name) == catalog.ClassCalculation {
		b.WriteString("  " + name + ": " + r.ts(calc.Type) + ";\n")
		return
	}
	b.WriteString("  " + name + ": { __type: \"ComplexCalculation\"; __array: " +
		boolText(calc.Type.IsList()) + "; " + r.returnRef(calc.Type))
	if len(calc.Args) > 0 {
		b.WriteString("; __args: " + r.argsShape(calc))
	}
	b.WriteString(" };\n")
}

func (r *renderer) renderAggregateField(b *strings.Builder, res *catalog.Resource, agg *catalog.Aggregate) {
	name := r.externalName(agg.Name, agg.ExternalName)
	if r.catalog.Classify(res, agg.Name) == catalog.ClassAggregate {
		b.WriteString("  " + name + ": " + r.ts(agg.Type) + ";\n")
		return
	}
	b.WriteString("  " + name + ": { __type: \"ComplexCalculation\"; __array: " +
		boolText(agg.Type.IsList()) + "; " + r.returnRef(agg.Type) + " };\n")
}

// returnRef renders the return-shape marker of a complex field: a
// nested schema reference for resource returns, a plain type
// otherwise.
func (r *renderer) returnRef(t *catalog.TypeRef) string {
	elem := t.Elem()
	if elem != nil && (elem.Kind == catalog.TypeKindResource ||
		(elem.Kind == catalog.TypeKindStruct && r.catalog.Resource(elem.Named) != nil)) {
		return "__resource: " + elem.Named + "Schema"
	}
	return "__returnType: " + r.ts(t)
}

func (r *renderer) argsShape(calc *catalog.Calculation) string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, arg := range calc.OrderedArgs() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(r.externalName(arg.Name, arg.ExternalName))
		if arg.Nullable || arg.HasDefault {
			b.WriteString("?")
		}
		b.WriteString(": " + r.ts(arg.Type))
	}
	b.WriteString(" }")
	return b.String()
}

func (r *renderer) renderInputSchema(b *strings.Builder, res *catalog.Resource) {
	b.WriteString("export type ")
	b.WriteString(res.Name)
	b.WriteString("InputSchema = {\n")
	for _, attr := range res.OrderedAttributes() {
		if !attr.Public || !r.refAllowed(attr.Type) {
			continue
		}
		name := r.externalName(attr.Name, attr.ExternalName)
		b.WriteString("  " + name)
		if attr.Nullable || attr.HasDefault {
			b.WriteString("?")
		}
		b.WriteString(": " + r.tsNullableMode(attr.Type, attr.Nullable, true) + ";\n")
	}
	b.WriteString("};\n\n")
}

// ----- struct and union rendering -----

func (r *renderer) renderStruct(b *strings.Builder, def *catalog.StructDef) {
	b.WriteString("export type ")
	b.WriteString(def.Name)
	b.WriteString("Schema = {\n")
	for _, f := range def.OrderedFields() {
		if !r.refAllowed(f.Type) {
			continue
		}
		name := r.externalName(f.Name, f.ExternalName)
		b.WriteString("  " + name + ": " + r.tsNullable(f.Type, f.Nullable) + ";\n")
	}
	b.WriteString("};\n\n")
}

func (r *renderer) renderUnion(b *strings.Builder, u *catalog.UnionDef) {
	// Primitive-member name union over all non-structured members.
	var primitives []string
	for _, m := range u.OrderedMembers() {
		if !r.catalog.NeedsFieldSelection(m.Type) {
			primitives = append(primitives, naming.Format(m.Name, r.policy))
		}
	}
	b.WriteString("export type ")
	b.WriteString(u.Name)
	b.WriteString("PrimitiveMember =")
	if len(primitives) == 0 {
		b.WriteString(" never;\n\n")
	} else {
		for i, name := range primitives {
			if i > 0 {
				b.WriteString(" |")
			}
			b.WriteString(" \"" + name + "\"")
		}
		b.WriteString(";\n\n")
	}

	// One optional, independently nullable field per structured
	// member.
	b.WriteString("export type ")
	b.WriteString(u.Name)
	b.WriteString("Schema = {\n")
	for _, m := range u.OrderedMembers() {
		if !r.catalog.NeedsFieldSelection(m.Type) || !r.refAllowed(m.Type) {
			continue
		}
		name := naming.Format(m.Name, r.policy)
		b.WriteString("  " + name + "?: " + r.ts(m.Type) + " | null;\n")
	}
	b.WriteString("};\n\n")
}

// ----- type text -----

func (r *renderer) tsNullable(t *catalog.TypeRef, nullable bool) string {
	return r.tsNullableMode(t, nullable, false)
}

func (r *renderer) tsNullableMode(t *catalog.TypeRef, nullable, input bool) string {
	text := r.tsMode(t, input)
	if nullable {
		return text + " | null"
	}
	return text
}

func (r *renderer) ts(t *catalog.TypeRef) string { return r.tsMode(t, false) }

// tsMode renders a type expression as client type text. In input
// mode resource references use the write-side input schema.
func (r *renderer) tsMode(t *catalog.TypeRef, input bool) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case catalog.TypeKindScalar:
		if ts, ok := tsScalar[t.Named]; ok {
			return ts
		}
		return "unknown"
	case catalog.TypeKindList:
		return "Array<" + r.tsMode(t.OfType, input) + ">"
	case catalog.TypeKindMap, catalog.TypeKindKeyword:
		if len(t.Fields) == 0 {
			return "Record<string, unknown>"
		}
		return r.inlineFields(t, input)
	case catalog.TypeKindTuple:
		if len(t.Fields) == 0 {
			return "Array<unknown>"
		}
		return r.inlineFields(t, input)
	case catalog.TypeKindStruct:
		if r.catalog.Resource(t.Named) != nil {
			return r.resourceRef(t.Named, input)
		}
		return t.Named + "Schema"
	case catalog.TypeKindUnion:
		return t.Named + "Schema"
	case catalog.TypeKindResource:
		return r.resourceRef(t.Named, input)
	default:
		return "unknown"
	}
}

func (r *renderer) resourceRef(name string, input bool) string {
	if input {
		return name + "InputSchema"
	}
	return name + "Schema"
}

func (r *renderer) inlineFields(t *catalog.TypeRef, input bool) string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, f := range t.OrderedFields() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(r.externalName(f.Name, f.ExternalName))
		b.WriteString(": " + r.tsNullableMode(f.Type, f.Nullable, input))
	}
	b.WriteString(" }")
	return b.String()
}

func boolText(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
