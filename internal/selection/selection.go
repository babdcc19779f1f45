// Package selection models the client-supplied field selection tree.
//
// The wire format is a sequence whose elements are either a field
// name string or an object mapping field names to nested selections
// of the same shape. A bare top-level object is accepted as shorthand
// for a single-element sequence. Objects may carry several keys; key
// order is preserved, since the response template must mirror the
// request verbatim.
package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Tree is one level of a selection: an ordered list of requested
// fields.
type Tree []Node

// Node is one requested field. A bare leaf has Nested == false. A
// field given a nested selection (even an empty one) has
// Nested == true. A parameterized-calculation entry additionally
// carries HasArgs == true with the raw argument map.
type Node struct {
	Name     string
	Children Tree
	Nested   bool
	Args     map[string]any
	HasArgs  bool
}

// Leaf builds a bare leaf node.
func Leaf(name string) Node { return Node{Name: name} }

// With builds a field with a nested selection.
func With(name string, children ...Node) Node {
	return Node{Name: name, Children: children, Nested: true}
}

// WithArgs builds a parameterized-calculation entry.
func WithArgs(name string, args map[string]any, children ...Node) Node {
	return Node{Name: name, Children: children, Nested: children != nil, Args: args, HasArgs: true}
}

// ParseJSON decodes a selection tree from its JSON wire form.
func ParseJSON(data []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}

	var tree Tree
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			tree, err = parseSequence(dec)
		case '{':
			tree, err = parseObjectEntries(dec)
		default:
			return nil, fmt.Errorf("invalid selection: unexpected %q", t.String())
		}
	case string:
		tree = Tree{Leaf(t)}
	default:
		return nil, fmt.Errorf("invalid selection: unexpected %v", tok)
	}
	if err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, fmt.Errorf("invalid selection: trailing data")
	}
	return tree, nil
}

// parseSequence consumes array elements up to and including the
// closing bracket. The opening bracket has already been read.
func parseSequence(dec *json.Decoder) (Tree, error) {
	var tree Tree
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid selection: %w", err)
		}
		switch t := tok.(type) {
		case string:
			tree = append(tree, Leaf(t))
		case json.Delim:
			if t != '{' {
				return nil, fmt.Errorf("invalid selection: unexpected %q in sequence", t.String())
			}
			entries, err := parseObjectEntries(dec)
			if err != nil {
				return nil, err
			}
			tree = append(tree, entries...)
		default:
			return nil, fmt.Errorf("invalid selection: entries must be strings or objects, got %v", tok)
		}
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	return tree, nil
}

// parseObjectEntries consumes the members of an object whose opening
// brace has already been read, producing one node per key in source
// order.
func parseObjectEntries(dec *json.Decoder) (Tree, error) {
	var tree Tree
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid selection: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid selection: object key must be a string")
		}
		node, err := parseNested(dec, key)
		if err != nil {
			return nil, err
		}
		tree = append(tree, node)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	return tree, nil
}

// parseNested reads the value mapped to a field name: either a nested
// selection, or the {"args": ..., "fields": ...} form used for
// parameterized calculations.
func parseNested(dec *json.Decoder, name string) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, fmt.Errorf("invalid selection: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return Node{}, fmt.Errorf("invalid selection: field %q must map to an array or object", name)
	}
	switch delim {
	case '[':
		children, err := parseSequence(dec)
		if err != nil {
			return Node{}, err
		}
		node := Node{Name: name, Nested: true}
		node.Children = children
		return node, nil
	case '{':
		return parseNestedObject(dec, name)
	default:
		return Node{}, fmt.Errorf("invalid selection: field %q must map to an array or object", name)
	}
}

// parseNestedObject handles an object-valued nested selection. When
// the object carries an "args" member it is the parameterized
// calculation form; otherwise each member is a nested field.
func parseNestedObject(dec *json.Decoder, name string) (Node, error) {
	type member struct {
		key   string
		node  Node // set for selection members
		raw   any  // set for value members
		isVal bool
	}
	var members []member

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Node{}, fmt.Errorf("invalid selection: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Node{}, fmt.Errorf("invalid selection: object key must be a string")
		}
		if key == "args" {
			var raw any
			if err := decodeValue(dec, &raw); err != nil {
				return Node{}, fmt.Errorf("invalid selection: args of %q: %w", name, err)
			}
			members = append(members, member{key: key, raw: raw, isVal: true})
			continue
		}
		node, err := parseNested(dec, key)
		if err != nil {
			return Node{}, err
		}
		members = append(members, member{key: key, node: node})
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Node{}, fmt.Errorf("invalid selection: %w", err)
	}

	node := Node{Name: name, Nested: true}
	hasArgs := false
	for _, m := range members {
		if m.isVal {
			hasArgs = true
		}
	}
	if hasArgs {
		for _, m := range members {
			switch {
			case m.key == "args":
				args, ok := m.raw.(map[string]any)
				if !ok && m.raw != nil {
					return Node{}, fmt.Errorf("invalid selection: args of %q must be an object", name)
				}
				node.Args = args
				node.HasArgs = true
			case m.key == "fields":
				node.Children = m.node.Children
			default:
				return Node{}, fmt.Errorf("invalid selection: unexpected key %q alongside args of %q", m.key, name)
			}
		}
		return node, nil
	}

	for _, m := range members {
		node.Children = append(node.Children, m.node)
	}
	return node, nil
}

// decodeValue reads one arbitrary JSON value from the decoder.
func decodeValue(dec *json.Decoder, out *any) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := map[string]any{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := keyTok.(string)
				if !ok {
					return fmt.Errorf("object key must be a string")
				}
				var v any
				if err := decodeValue(dec, &v); err != nil {
					return err
				}
				m[key] = v
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			*out = m
		case '[':
			var list []any
			for dec.More() {
				var v any
				if err := decodeValue(dec, &v); err != nil {
					return err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			*out = list
		default:
			return io.ErrUnexpectedEOF
		}
	default:
		*out = tok
	}
	return nil
}
