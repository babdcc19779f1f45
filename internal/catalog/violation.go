package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Violation is one configuration problem found while loading a
// catalog. Catalog problems are programmer errors, not request
// errors; loading aborts when any are found.
type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

// Core primitive used by the loader's reporting helpers.
func violationAt(file string, node *yaml.Node, format string, args ...any) *Violation {
	v := &Violation{Message: fmt.Sprintf(format, args...), File: file}
	if node != nil {
		v.Line = node.Line
		v.Column = node.Column
	}
	return v
}
