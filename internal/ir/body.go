package ir

import (
	"strconv"
	"strings"
)

// Body is the ordered locals and statements of one method.
type Body struct {
	Method string // Signature of the owning method
	Locals []*Local
	Units  []Stmt

	counters map[string]int
}

// NewBody creates an empty body for the method with the given signature.
func NewBody(method string) *Body {
	return &Body{
		Method:   method,
		counters: make(map[string]int),
	}
}

// NewLocal generates a fresh local of type t and adds it to the body.
// Names follow the Jimple convention: $i0, $i1, $r0, ...
func (b *Body) NewLocal(t Type) *Local {
	if b.counters == nil {
		b.counters = make(map[string]int)
	}
	prefix := localPrefix(t)
	n := b.counters[prefix]
	b.counters[prefix] = n + 1

	local := &Local{Name: prefix + strconv.Itoa(n), Typ: t}
	b.Locals = append(b.Locals, local)
	return local
}

// Add appends statements to the end of the body.
func (b *Body) Add(stmts ...Stmt) {
	b.Units = append(b.Units, stmts...)
}

// InsertBeforeLast inserts statements ahead of the final statement, or
// appends them when the body is empty.
func (b *Body) InsertBeforeLast(stmts ...Stmt) {
	if len(b.Units) == 0 {
		b.Add(stmts...)
		return
	}
	last := b.Units[len(b.Units)-1]
	units := make([]Stmt, 0, len(b.Units)+len(stmts))
	units = append(units, b.Units[:len(b.Units)-1]...)
	units = append(units, stmts...)
	units = append(units, last)
	b.Units = units
}

// IndexOf returns the raw position of s in the body, or -1.
func (b *Body) IndexOf(s Stmt) int {
	for i, u := range b.Units {
		if u == s {
			return i
		}
	}
	return -1
}

// InvokeCount returns the number of invoke-bearing statements.
func (b *Body) InvokeCount() int {
	n := 0
	for _, u := range b.Units {
		if HasInvoke(u) {
			n++
		}
	}
	return n
}

// String renders the body in a Jimple-like text form.
func (b *Body) String() string {
	var sb strings.Builder
	sb.WriteString(b.Method)
	sb.WriteString(" {\n")
	for _, l := range b.Locals {
		sb.WriteString("    ")
		sb.WriteString(l.Typ.String())
		sb.WriteString(" ")
		sb.WriteString(l.Name)
		sb.WriteString(";\n")
	}
	if len(b.Locals) > 0 {
		sb.WriteString("\n")
	}
	for _, u := range b.Units {
		sb.WriteString("    ")
		sb.WriteString(u.String())
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
