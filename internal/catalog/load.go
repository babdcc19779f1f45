package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/fieldplan/internal/eventbus"
	"github.com/hanpama/fieldplan/internal/events"
)

// builtinScalars is the set of primitive type names a definition may
// reference directly. Mapping them to client wire types is the
// generator's lexicon; here they only need to be recognized.
var builtinScalars = map[string]bool{
	"string":   true,
	"integer":  true,
	"float":    true,
	"decimal":  true,
	"boolean":  true,
	"uuid":     true,
	"date":     true,
	"datetime": true,
	"duration": true,
	"atom":     true,
}

// Load reads every definition document from the discovery, links type
// references and builds the immutable catalog. It returns a
// ValidationError listing all problems when the definitions are
// inconsistent.
func Load(ctx context.Context, disc Discovery) (*Catalog, error) {
	start := time.Now()
	metas, err := disc.ListMetadata(ctx)
	if err != nil {
		return nil, err
	}

	ld := &loader{
		catalog: &Catalog{
			Resources: map[string]*Resource{},
			Structs:   map[string]*StructDef{},
			Unions:    map[string]*UnionDef{},
		},
	}

	var docs []*rawDoc
	for _, meta := range metas {
		content, err := disc.ReadDocument(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		parsed, err := decodeDocuments(meta.FilePath, content)
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
	}

	// First pass registers every name so type references can be
	// resolved regardless of definition order.
	for _, doc := range docs {
		ld.register(doc)
	}
	// Second pass links types and builds the definitions.
	for _, doc := range docs {
		ld.link(doc)
	}
	ld.validate()

	if len(ld.violations) > 0 {
		sort.SliceStable(ld.violations, func(i, j int) bool {
			if ld.violations[i].File != ld.violations[j].File {
				return ld.violations[i].File < ld.violations[j].File
			}
			return ld.violations[i].Line < ld.violations[j].Line
		})
		return nil, ValidationError(ld.violations)
	}

	for _, res := range ld.catalog.Resources {
		res.buildNameIndex()
	}
	for _, s := range ld.catalog.Structs {
		s.buildNameIndex()
	}

	eventbus.Publish(ctx, events.CatalogLoaded{
		Documents: len(docs),
		Resources: len(ld.catalog.Resources),
		Duration:  time.Since(start),
	})
	return ld.catalog, nil
}

type loader struct {
	catalog    *Catalog
	violations []*Violation
}

func (ld *loader) report(file string, node *yaml.Node, format string, args ...any) {
	ld.violations = append(ld.violations, violationAt(file, node, format, args...))
}

// ----- raw document model -----

type rawDoc struct {
	file string

	Resource    string `yaml:"resource"`
	Struct      string `yaml:"struct"`
	Union       string `yaml:"union"`
	Description string `yaml:"description"`
	Public      *bool  `yaml:"public"`
	Embedded    bool   `yaml:"embedded"`

	Attributes    []*rawAttribute    `yaml:"attributes"`
	Calculations  []*rawCalculation  `yaml:"calculations"`
	Aggregates    []*rawAggregate    `yaml:"aggregates"`
	Relationships []*rawRelationship `yaml:"relationships"`
	Actions       []*rawAction       `yaml:"actions"`

	Fields  []*rawFieldSpec `yaml:"fields"`  // struct documents
	Members []*rawMember    `yaml:"members"` // union documents
}

type rawAttribute struct {
	Name     string    `yaml:"name"`
	Type     *rawType  `yaml:"type"`
	Nullable bool      `yaml:"nullable"`
	Default  yaml.Node `yaml:"default"`
	Public   *bool     `yaml:"public"`
	External string    `yaml:"external"`
}

type rawCalculation struct {
	Name     string    `yaml:"name"`
	Type     *rawType  `yaml:"type"`
	Args     []*rawArg `yaml:"args"`
	Public   *bool     `yaml:"public"`
	External string    `yaml:"external"`
	Desc     string    `yaml:"description"`
}

type rawArg struct {
	Name     string    `yaml:"name"`
	Type     *rawType  `yaml:"type"`
	Nullable bool      `yaml:"nullable"`
	Default  yaml.Node `yaml:"default"`
	External string    `yaml:"external"`
}

type rawAggregate struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Relationship string   `yaml:"relationship"`
	Field        string   `yaml:"field"`
	Type         *rawType `yaml:"type"`
	Public       *bool    `yaml:"public"`
	External     string   `yaml:"external"`
}

type rawRelationship struct {
	Name        string `yaml:"name"`
	Destination string `yaml:"destination"`
	Many        bool   `yaml:"many"`
	Nullable    bool   `yaml:"nullable"`
	Public      *bool  `yaml:"public"`
	External    string `yaml:"external"`
}

type rawAction struct {
	Name        string   `yaml:"name"`
	Returns     *rawType `yaml:"returns"`
	Many        bool     `yaml:"many"`
	Description string   `yaml:"description"`
}

type rawFieldSpec struct {
	Name     string    `yaml:"name"`
	Type     *rawType  `yaml:"type"`
	Nullable bool      `yaml:"nullable"`
	Default  yaml.Node `yaml:"default"`
	External string    `yaml:"external"`
}

type rawMember struct {
	Name string   `yaml:"name"`
	Type *rawType `yaml:"type"`
}

// rawType is a type expression as written in YAML: either a bare name
// ("string", "Comment", "map", "any") or a single-key mapping such as
// {array: string}, {tuple: [...]}, {map: [...]} or {keyword: [...]}.
type rawType struct {
	name   string
	array  *rawType
	fields []*rawFieldSpec
	kind   TypeKind // set for the structured mapping forms
	node   *yaml.Node
}

func (t *rawType) UnmarshalYAML(node *yaml.Node) error {
	t.node = node
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&t.name)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: type expression must have exactly one key", node.Line)
		}
		key := node.Content[0].Value
		value := node.Content[1]
		switch key {
		case "array":
			t.kind = TypeKindList
			t.array = &rawType{}
			return t.array.UnmarshalYAML(value)
		case "map":
			t.kind = TypeKindMap
			return value.Decode(&t.fields)
		case "keyword":
			t.kind = TypeKindKeyword
			return value.Decode(&t.fields)
		case "tuple":
			t.kind = TypeKindTuple
			return value.Decode(&t.fields)
		default:
			return fmt.Errorf("line %d: unknown type constructor %q", node.Line, key)
		}
	default:
		return fmt.Errorf("line %d: invalid type expression", node.Line)
	}
}

func decodeDocuments(file string, content []byte) ([]*rawDoc, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	var docs []*rawDoc
	for {
		doc := &rawDoc{file: file}
		if err := dec.Decode(doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ----- registration and linking -----

func (ld *loader) register(doc *rawDoc) {
	switch {
	case doc.Resource != "":
		if ld.known(doc.Resource) {
			ld.report(doc.file, nil, "duplicate definition of %q", doc.Resource)
			return
		}
		ld.catalog.Resources[doc.Resource] = &Resource{
			Name:          doc.Resource,
			Description:   doc.Description,
			Public:        doc.Public == nil || *doc.Public,
			Embedded:      doc.Embedded,
			Attributes:    map[string]*Attribute{},
			Calculations:  map[string]*Calculation{},
			Aggregates:    map[string]*Aggregate{},
			Relationships: map[string]*Relationship{},
			Actions:       map[string]*Action{},
		}
	case doc.Struct != "":
		if ld.known(doc.Struct) {
			ld.report(doc.file, nil, "duplicate definition of %q", doc.Struct)
			return
		}
		ld.catalog.Structs[doc.Struct] = &StructDef{
			Name:   doc.Struct,
			Fields: map[string]*FieldSpec{},
		}
	case doc.Union != "":
		if ld.known(doc.Union) {
			ld.report(doc.file, nil, "duplicate definition of %q", doc.Union)
			return
		}
		ld.catalog.Unions[doc.Union] = &UnionDef{
			Name:    doc.Union,
			Members: map[string]*UnionMember{},
		}
	default:
		ld.report(doc.file, nil, "document declares no resource, struct or union")
	}
}

func (ld *loader) known(name string) bool {
	_, r := ld.catalog.Resources[name]
	_, s := ld.catalog.Structs[name]
	_, u := ld.catalog.Unions[name]
	return r || s || u
}

func (ld *loader) link(doc *rawDoc) {
	switch {
	case doc.Resource != "":
		if res := ld.catalog.Resources[doc.Resource]; res != nil {
			ld.linkResource(doc, res)
		}
	case doc.Struct != "":
		if s := ld.catalog.Structs[doc.Struct]; s != nil {
			ld.linkStruct(doc, s)
		}
	case doc.Union != "":
		if u := ld.catalog.Unions[doc.Union]; u != nil {
			ld.linkUnion(doc, u)
		}
	}
}

func (ld *loader) linkResource(doc *rawDoc, res *Resource) {
	for i, raw := range doc.Attributes {
		if raw.Name == "" {
			ld.report(doc.file, nil, "resource %q: attribute #%d has no name", res.Name, i)
			continue
		}
		res.Attributes[raw.Name] = &Attribute{
			Name:         raw.Name,
			Type:         ld.linkType(doc.file, raw.Type),
			Nullable:     raw.Nullable,
			HasDefault:   !raw.Default.IsZero(),
			Public:       raw.Public == nil || *raw.Public,
			ExternalName: raw.External,
			Index:        i,
		}
	}
	for i, raw := range doc.Calculations {
		if raw.Name == "" {
			ld.report(doc.file, nil, "resource %q: calculation #%d has no name", res.Name, i)
			continue
		}
		calc := &Calculation{
			Name:         raw.Name,
			Description:  raw.Desc,
			Type:         ld.linkType(doc.file, raw.Type),
			Args:         map[string]*Argument{},
			Public:       raw.Public == nil || *raw.Public,
			ExternalName: raw.External,
			Index:        i,
		}
		for j, arg := range raw.Args {
			calc.Args[arg.Name] = &Argument{
				Name:         arg.Name,
				Type:         ld.linkType(doc.file, arg.Type),
				Nullable:     arg.Nullable,
				HasDefault:   !arg.Default.IsZero(),
				ExternalName: arg.External,
				Index:        j,
			}
		}
		res.Calculations[raw.Name] = calc
	}
	for i, raw := range doc.Aggregates {
		if raw.Name == "" {
			ld.report(doc.file, nil, "resource %q: aggregate #%d has no name", res.Name, i)
			continue
		}
		agg := &Aggregate{
			Name:         raw.Name,
			Kind:         AggregateKind(raw.Kind),
			Relationship: raw.Relationship,
			Field:        raw.Field,
			Public:       raw.Public == nil || *raw.Public,
			ExternalName: raw.External,
			Index:        i,
		}
		switch {
		case raw.Type != nil:
			agg.Type = ld.linkType(doc.file, raw.Type)
		case agg.Kind == AggregateCount:
			agg.Type = ScalarType("integer")
		case agg.Kind == AggregateExists:
			agg.Type = ScalarType("boolean")
		default:
			ld.report(doc.file, nil, "resource %q: aggregate %q needs an explicit type", res.Name, raw.Name)
			agg.Type = AnyType()
		}
		res.Aggregates[raw.Name] = agg
	}
	for i, raw := range doc.Relationships {
		if raw.Name == "" {
			ld.report(doc.file, nil, "resource %q: relationship #%d has no name", res.Name, i)
			continue
		}
		res.Relationships[raw.Name] = &Relationship{
			Name:         raw.Name,
			Destination:  raw.Destination,
			Many:         raw.Many,
			Nullable:     raw.Nullable,
			Public:       raw.Public == nil || *raw.Public,
			ExternalName: raw.External,
			Index:        i,
		}
	}
	for i, raw := range doc.Actions {
		if raw.Name == "" {
			ld.report(doc.file, nil, "resource %q: action #%d has no name", res.Name, i)
			continue
		}
		var ret *TypeRef
		if raw.Returns != nil {
			ret = ld.linkType(doc.file, raw.Returns)
		} else {
			// Default action return is the resource itself.
			ret = ResourceType(res.Name)
		}
		if raw.Many {
			ret = ListType(ret)
		}
		res.Actions[raw.Name] = &Action{
			Name:        raw.Name,
			Description: raw.Description,
			Type:        ret,
			Index:       i,
		}
	}
}

func (ld *loader) linkStruct(doc *rawDoc, s *StructDef) {
	for i, raw := range doc.Fields {
		if raw.Name == "" {
			ld.report(doc.file, nil, "struct %q: field #%d has no name", s.Name, i)
			continue
		}
		s.Fields[raw.Name] = &FieldSpec{
			Name:         raw.Name,
			Type:         ld.linkType(doc.file, raw.Type),
			Nullable:     raw.Nullable,
			HasDefault:   !raw.Default.IsZero(),
			ExternalName: raw.External,
			Index:        i,
		}
	}
}

func (ld *loader) linkUnion(doc *rawDoc, u *UnionDef) {
	for i, raw := range doc.Members {
		if raw.Name == "" {
			ld.report(doc.file, nil, "union %q: member #%d has no name", u.Name, i)
			continue
		}
		u.Members[raw.Name] = &UnionMember{
			Name:  raw.Name,
			Type:  ld.linkType(doc.file, raw.Type),
			Index: i,
		}
	}
}

func (ld *loader) linkType(file string, raw *rawType) *TypeRef {
	if raw == nil {
		ld.report(file, nil, "missing type expression")
		return AnyType()
	}
	switch raw.kind {
	case TypeKindList:
		return ListType(ld.linkType(file, raw.array))
	case TypeKindMap, TypeKindKeyword, TypeKindTuple:
		t := &TypeRef{Kind: raw.kind}
		for i, f := range raw.fields {
			t.Fields = append(t.Fields, &FieldSpec{
				Name:         f.Name,
				Type:         ld.linkType(file, f.Type),
				Nullable:     f.Nullable,
				HasDefault:   !f.Default.IsZero(),
				ExternalName: f.External,
				Index:        i,
			})
		}
		return t
	}

	switch raw.name {
	case "map":
		return &TypeRef{Kind: TypeKindMap}
	case "keyword":
		return &TypeRef{Kind: TypeKindKeyword}
	case "tuple":
		return &TypeRef{Kind: TypeKindTuple}
	case "any":
		return AnyType()
	}
	if builtinScalars[raw.name] {
		return ScalarType(raw.name)
	}
	if _, ok := ld.catalog.Resources[raw.name]; ok {
		return ResourceType(raw.name)
	}
	if _, ok := ld.catalog.Structs[raw.name]; ok {
		return StructType(raw.name)
	}
	if _, ok := ld.catalog.Unions[raw.name]; ok {
		return UnionType(raw.name)
	}
	ld.report(file, raw.node, "unknown type %q", raw.name)
	return AnyType()
}

// ----- whole-catalog validation -----

func (ld *loader) validate() {
	names := make([]string, 0, len(ld.catalog.Resources))
	for name := range ld.catalog.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := ld.catalog.Resources[name]
		for _, rel := range res.Relationships {
			if _, ok := ld.catalog.Resources[rel.Destination]; !ok {
				ld.report("", nil, "resource %q: relationship %q points at unknown resource %q",
					res.Name, rel.Name, rel.Destination)
			}
		}
		for _, agg := range res.Aggregates {
			if agg.Relationship == "" {
				ld.report("", nil, "resource %q: aggregate %q declares no relationship", res.Name, agg.Name)
				continue
			}
			if _, ok := res.Relationships[agg.Relationship]; !ok {
				ld.report("", nil, "resource %q: aggregate %q targets unknown relationship %q",
					res.Name, agg.Name, agg.Relationship)
			}
		}
		ld.validateAliases(res)
	}
}

// validateAliases rejects an external alias that collides with the
// internal name of a different field; the planner's duplicate
// detection depends on alias resolution being unambiguous.
func (ld *loader) validateAliases(res *Resource) {
	internals := map[string]bool{}
	aliases := map[string]string{}
	collect := func(internal, external string) {
		internals[internal] = true
		if external != "" {
			if prev, ok := aliases[external]; ok && prev != internal {
				ld.report("", nil, "resource %q: external name %q declared for both %q and %q",
					res.Name, external, prev, internal)
			}
			aliases[external] = internal
		}
	}
	for _, a := range res.Attributes {
		collect(a.Name, a.ExternalName)
	}
	for _, c := range res.Calculations {
		collect(c.Name, c.ExternalName)
	}
	for _, a := range res.Aggregates {
		collect(a.Name, a.ExternalName)
	}
	for _, rel := range res.Relationships {
		collect(rel.Name, rel.ExternalName)
	}
	for external, internal := range aliases {
		if internals[external] && external != internal {
			ld.report("", nil, "resource %q: external name %q shadows another field", res.Name, external)
		}
	}
}
