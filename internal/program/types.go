package program

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/dryjin/internal/ir"
)

// ErrUnknownType indicates a type token that names no primitive, array or class.
var ErrUnknownType = errors.New("unknown type")

var primitives = map[string]ir.Type{
	"boolean": ir.Boolean,
	"byte":    ir.Byte,
	"char":    ir.Char,
	"short":   ir.Short,
	"int":     ir.Int,
	"long":    ir.Long,
	"float":   ir.Float,
	"double":  ir.Double,
	"void":    ir.Void,
	"None":    ir.Null, // oracle spelling of "no type"
}

// NormalizeToken trims whitespace and stray quotes the oracle leaves around
// type names, e.g. 'java.lang.String'.
func NormalizeToken(token string) string {
	return strings.Trim(strings.TrimSpace(token), `'"`)
}

// ParseType converts a type token such as "int", "java.lang.String" or
// "byte[][]" into an IR type.
func ParseType(token string) (ir.Type, error) {
	token = NormalizeToken(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnknownType)
	}

	if strings.HasSuffix(token, "[]") {
		elem, err := ParseType(strings.TrimSuffix(token, "[]"))
		if err != nil {
			return nil, err
		}
		if elem == ir.Void || elem == ir.Null {
			return nil, fmt.Errorf("%w: array of %s", ErrUnknownType, elem)
		}
		return ir.ArrayType{Elem: elem}, nil
	}

	if t, ok := primitives[token]; ok {
		return t, nil
	}

	if !isClassName(token) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, token)
	}
	return ir.RefType{ClassName: token}, nil
}

// isClassName accepts dotted Java identifiers, including $ for nested classes.
func isClassName(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_' || r == '$':
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

// typeString renders a token the way the corresponding IR type prints, so
// lookups by declared tokens match methods created from parsed types.
func typeString(token string) string {
	if t, err := ParseType(token); err == nil {
		return t.String()
	}
	return NormalizeToken(token)
}
