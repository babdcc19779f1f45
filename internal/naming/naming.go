// Package naming implements the external field-name formatting
// policy. Internal names are snake_case symbols that may end in a
// question or bang mark; external names must be plain identifiers.
package naming

import "strings"

// Policy selects the external naming convention.
type Policy string

const (
	PolicyCamel  Policy = "camel"
	PolicySnake  Policy = "snake"
	PolicyPascal Policy = "pascal"
)

// Format converts an internal field name to its external form under
// the given policy. Trailing markers that are not representable in
// client identifiers are dropped.
func Format(name string, policy Policy) string {
	name = strings.TrimRight(name, "?!")
	words := strings.Split(name, "_")

	switch policy {
	case PolicySnake:
		return strings.Join(words, "_")
	case PolicyPascal:
		var b strings.Builder
		for _, w := range words {
			b.WriteString(capitalize(w))
		}
		return b.String()
	default: // camel
		var b strings.Builder
		for i, w := range words {
			if i == 0 {
				b.WriteString(w)
				continue
			}
			b.WriteString(capitalize(w))
		}
		return b.String()
	}
}

func capitalize(w string) string {
	if w == "" {
		return ""
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
