package catalog

import "sort"

// Catalog is the immutable resource metadata store shared by the
// planner and the schema generator. It is built once by Load and
// never mutated afterwards, so concurrent readers need no locking.
type Catalog struct {
	Resources map[string]*Resource
	Structs   map[string]*StructDef
	Unions    map[string]*UnionDef
}

// Resource returns the resource with the given name, or nil.
func (c *Catalog) Resource(name string) *Resource { return c.Resources[name] }

// Struct returns the named struct definition, or nil.
func (c *Catalog) Struct(name string) *StructDef { return c.Structs[name] }

// Union returns the named union definition, or nil.
func (c *Catalog) Union(name string) *UnionDef { return c.Unions[name] }

// Resource describes one record type: its stored attributes, derived
// calculations and aggregates, relationships to other resources and
// the actions clients may invoke against it.
type Resource struct {
	Name        string
	Description string
	Public      bool
	Embedded    bool // usable as an inline embedded value

	Attributes    map[string]*Attribute
	Calculations  map[string]*Calculation
	Aggregates    map[string]*Aggregate
	Relationships map[string]*Relationship
	Actions       map[string]*Action

	// Direction-keyed name lookup tables, built once at load time.
	toInternal map[string]string
	toExternal map[string]string
}

// Action describes an invocable operation and its return type.
type Action struct {
	Name        string
	Description string
	Type        *TypeRef
	Index       int
}

// Attribute is a stored field on a resource.
type Attribute struct {
	Name         string
	Description  string
	Type         *TypeRef
	Nullable     bool
	HasDefault   bool
	Public       bool
	ExternalName string // optional external alias
	Index        int
}

// Calculation is a derived field, possibly parameterized.
type Calculation struct {
	Name         string
	Description  string
	Type         *TypeRef
	Args         map[string]*Argument
	Public       bool
	ExternalName string
	Index        int
}

// Argument is a declared calculation argument.
type Argument struct {
	Name         string
	Type         *TypeRef
	Nullable     bool
	HasDefault   bool
	ExternalName string
	Index        int
}

// AggregateKind identifies the summarizing operation of an aggregate.
type AggregateKind string

const (
	AggregateCount  AggregateKind = "count"
	AggregateSum    AggregateKind = "sum"
	AggregateFirst  AggregateKind = "first"
	AggregateList   AggregateKind = "list"
	AggregateMax    AggregateKind = "max"
	AggregateMin    AggregateKind = "min"
	AggregateAvg    AggregateKind = "avg"
	AggregateExists AggregateKind = "exists"
)

// Aggregate summarizes a relationship into a single value.
type Aggregate struct {
	Name         string
	Kind         AggregateKind
	Relationship string
	Field        string // target field for sum/first/list/max/min/avg
	Type         *TypeRef
	Public       bool
	ExternalName string
	Index        int
}

// Relationship points at another resource.
type Relationship struct {
	Name         string
	Destination  string
	Many         bool
	Nullable     bool
	Public       bool
	ExternalName string
	Index        int
}

// StructDef is a fixed-shape value type with named members. Unlike a
// resource it is never queryable on its own; it only appears as a
// field value. It carries its own external-name table, independent of
// any owning resource.
type StructDef struct {
	Name   string
	Fields map[string]*FieldSpec

	toInternal map[string]string
	toExternal map[string]string
}

// UnionDef is a tagged union: the value is exactly one of the named
// members, each with its own type.
type UnionDef struct {
	Name    string
	Members map[string]*UnionMember
}

// UnionMember is one alternative of a union.
type UnionMember struct {
	Name  string
	Type  *TypeRef
	Index int
}

// FieldSpec declares one named slot of a struct, tuple or closed map.
type FieldSpec struct {
	Name         string
	Type         *TypeRef
	Nullable     bool
	HasDefault   bool
	ExternalName string
	Index        int
}

// MappedName returns the external alias declared for the internal
// field name, or "" when the field has no alias.
func (r *Resource) MappedName(internal string) string { return r.toExternal[internal] }

// InternalName returns the internal name behind an external alias,
// or "" when no alias with that name exists.
func (r *Resource) InternalName(external string) string { return r.toInternal[external] }

// ResolveName maps an external alias to its internal field name.
// Names without an alias pass through unchanged, so callers may hand
// it either form.
func (r *Resource) ResolveName(name string) string {
	if internal, ok := r.toInternal[name]; ok {
		return internal
	}
	return name
}

// ResolveName maps an external member alias to the struct's internal
// member name, passing unaliased names through.
func (s *StructDef) ResolveName(name string) string {
	if internal, ok := s.toInternal[name]; ok {
		return internal
	}
	return name
}

// MappedName returns the external alias for a struct member, or "".
func (s *StructDef) MappedName(internal string) string { return s.toExternal[internal] }

// ResolveArgName maps an external argument alias to the declared
// argument name for this calculation.
func (c *Calculation) ResolveArgName(name string) string {
	for _, arg := range c.Args {
		if arg.ExternalName == name {
			return arg.Name
		}
	}
	return name
}

func (r *Resource) OrderedAttributes() []*Attribute {
	attrs := make([]*Attribute, 0, len(r.Attributes))
	for _, a := range r.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Index < attrs[j].Index })
	return attrs
}

func (r *Resource) OrderedCalculations() []*Calculation {
	calcs := make([]*Calculation, 0, len(r.Calculations))
	for _, c := range r.Calculations {
		calcs = append(calcs, c)
	}
	sort.Slice(calcs, func(i, j int) bool { return calcs[i].Index < calcs[j].Index })
	return calcs
}

func (r *Resource) OrderedAggregates() []*Aggregate {
	aggs := make([]*Aggregate, 0, len(r.Aggregates))
	for _, a := range r.Aggregates {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Index < aggs[j].Index })
	return aggs
}

func (r *Resource) OrderedRelationships() []*Relationship {
	rels := make([]*Relationship, 0, len(r.Relationships))
	for _, rel := range r.Relationships {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Index < rels[j].Index })
	return rels
}

func (c *Calculation) OrderedArgs() []*Argument {
	args := make([]*Argument, 0, len(c.Args))
	for _, arg := range c.Args {
		args = append(args, arg)
	}
	sort.Slice(args, func(i, j int) bool { return args[i].Index < args[j].Index })
	return args
}

func (s *StructDef) OrderedFields() []*FieldSpec {
	fields := make([]*FieldSpec, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Index < fields[j].Index })
	return fields
}

func (u *UnionDef) OrderedMembers() []*UnionMember {
	members := make([]*UnionMember, 0, len(u.Members))
	for _, m := range u.Members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Index < members[j].Index })
	return members
}

// OrderedFields returns the declared field constraints of a map,
// keyword or tuple type in declaration order.
func (t *TypeRef) OrderedFields() []*FieldSpec {
	out := make([]*FieldSpec, len(t.Fields))
	copy(out, t.Fields)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// buildNameIndex populates the direction-keyed alias tables.
func (r *Resource) buildNameIndex() {
	r.toInternal = map[string]string{}
	r.toExternal = map[string]string{}
	for _, a := range r.Attributes {
		if a.ExternalName != "" {
			r.toInternal[a.ExternalName] = a.Name
			r.toExternal[a.Name] = a.ExternalName
		}
	}
	for _, c := range r.Calculations {
		if c.ExternalName != "" {
			r.toInternal[c.ExternalName] = c.Name
			r.toExternal[c.Name] = c.ExternalName
		}
	}
	for _, a := range r.Aggregates {
		if a.ExternalName != "" {
			r.toInternal[a.ExternalName] = a.Name
			r.toExternal[a.Name] = a.ExternalName
		}
	}
	for _, rel := range r.Relationships {
		if rel.ExternalName != "" {
			r.toInternal[rel.ExternalName] = rel.Name
			r.toExternal[rel.Name] = rel.ExternalName
		}
	}
}

func (s *StructDef) buildNameIndex() {
	s.toInternal = map[string]string{}
	s.toExternal = map[string]string{}
	for _, f := range s.Fields {
		if f.ExternalName != "" {
			s.toInternal[f.ExternalName] = f.Name
			s.toExternal[f.Name] = f.ExternalName
		}
	}
}
