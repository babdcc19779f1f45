package planner

// Plan is the compiled projection for one request: what the execution
// engine must fetch and how the response shaper must arrange it.
type Plan struct {
	// Select lists attribute names needing no sub-plan. No ordering
	// contract.
	Select []string `json:"select"`
	// Load lists nested fetch specs for fields the execution engine
	// must materialize. No ordering contract.
	Load []*LoadSpec `json:"load,omitempty"`
	// Template mirrors the requested shape exactly, nesting and order
	// included. This is the one place ordering is load-bearing.
	Template []*TemplateNode `json:"template"`
}

// LoadSpec instructs the execution engine to materialize one derived
// or related field.
type LoadSpec struct {
	Field  string         `json:"field"`
	Args   map[string]any `json:"args,omitempty"`
	Select []string       `json:"select,omitempty"`
	Load   []*LoadSpec    `json:"load,omitempty"`
}

// TemplateNode is one position of the response-shaping template. Leaf
// nodes have no children; union member tags and struct/tuple member
// names appear as regular named children.
type TemplateNode struct {
	Name     string          `json:"name"`
	Children []*TemplateNode `json:"children,omitempty"`
}

func leafTemplate(name string) *TemplateNode { return &TemplateNode{Name: name} }

// result is the (select, load, template) triple every sub-processor
// produces; the dispatcher merges them upward.
type result struct {
	sel  []string
	load []*LoadSpec
	tmpl []*TemplateNode
}

func (r *result) merge(other *result) {
	r.sel = append(r.sel, other.sel...)
	r.load = append(r.load, other.load...)
	r.tmpl = append(r.tmpl, other.tmpl...)
}
