package planner

import (
	"github.com/hanpama/fieldplan/internal/selection"
)

// requireNonEmpty enforces that a field was given a non-empty nested
// selection. kind names the field kind for the error detail.
func requireNonEmpty(node selection.Node, p path, kind string) *Error {
	if !node.Nested || len(node.Children) == 0 {
		return newError(ErrRequiresFieldSelection, node.Name, p, kind)
	}
	return nil
}

// checkDuplicates rejects any field requested twice at one selection
// level. Names resolve through the supplied mapping first, so an
// internal name and its external alias count as the same field.
// resolve may be nil when the level has no name mapping.
func checkDuplicates(tree selection.Tree, p path, resolve func(string) string) *Error {
	seen := make(map[string]bool, len(tree))
	for _, node := range tree {
		name := node.Name
		if name == "" {
			return newErrorAt(ErrInvalidFieldType, "", p, "selection entry has no field name")
		}
		if resolve != nil {
			name = resolve(name)
		}
		if seen[name] {
			return newError(ErrDuplicateField, node.Name, p, "")
		}
		seen[name] = true
	}
	return nil
}
