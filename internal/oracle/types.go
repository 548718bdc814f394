package oracle

import (
	"encoding/json"
	"fmt"
)

// StmtKind tags a statement descriptor.
type StmtKind string

const (
	StmtIdentity   StmtKind = "identity"
	StmtAssign     StmtKind = "assign"
	StmtDummy      StmtKind = "dummy"
	StmtInvoke     StmtKind = "invoke"
	StmtReturn     StmtKind = "return"
	StmtReturnVoid StmtKind = "return_void"
)

// ValueKind tags a value or reference descriptor.
type ValueKind string

const (
	ValueLocal    ValueKind = "local"
	ValueConst    ValueKind = "const"
	ValueBoolean  ValueKind = "boolean"
	ValueByte     ValueKind = "byte"
	ValueChar     ValueKind = "char"
	ValueShort    ValueKind = "short"
	ValueInt      ValueKind = "int"
	ValueLong     ValueKind = "long"
	ValueFloat    ValueKind = "float"
	ValueDouble   ValueKind = "double"
	ValueString   ValueKind = "string"
	ValueNew      ValueKind = "new"
	ValueInvoke   ValueKind = "invoke"
	ValueThisRef  ValueKind = "this_ref"
	ValueParamRef ValueKind = "param_ref"
	ValueFieldRef ValueKind = "field_ref"
)

// Document is the oracle output. Optional arrays are nil when absent.
type Document struct {
	Nodes         []MethodNode        `json:"nodes"`
	Edges         []EdgeDescriptor    `json:"edges"`
	NativeSources []string            `json:"native_sources"`
	IccLinks      []IccLinkDescriptor `json:"icc_links"`
}

// MethodNode describes one method body to synthesize.
type MethodNode struct {
	Class  string `json:"class"`
	Name   string `json:"name"`
	Ret    string `json:"ret"`
	Params string `json:"params"` // "(t1,t2)"
	Body   []Stmt `json:"body"`
}

// Invoke carries the call fields shared by invoke statements and invoke values.
type Invoke struct {
	Callee   string   `json:"callee"`
	Args     []*int64 `json:"args"` // nil entries stand for the dummy local
	IsStatic bool     `json:"is_static"`
	Base     *int64   `json:"base"`
}

// Stmt is a statement descriptor. A descriptor that does not decode keeps
// its slot in the body with Err set and every other field zero.
type Stmt struct {
	Kind     StmtKind `json:"stmt_type"`
	Local    *Value   `json:"local"`     // identity left side; return operand
	ParamRef *Value   `json:"param_ref"` // identity right side
	LeftOp   *Value   `json:"left_op"`
	RightOp  *Value   `json:"right_op"`
	Invoke

	Err error `json:"-"`
}

// UnmarshalJSON decodes one statement without failing the document.
func (s *Stmt) UnmarshalJSON(data []byte) error {
	type plain Stmt
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*s = Stmt{Err: fmt.Errorf("%w: %w", ErrMalformedStmt, err)}
		return nil
	}
	*s = Stmt(p)
	return nil
}

// Value is a value or reference descriptor.
type Value struct {
	Kind     ValueKind       `json:"stmt_type"`
	Index    *int64          `json:"index"`
	TypeName string          `json:"type"`
	Raw      json.RawMessage `json:"value"`
	Class    string          `json:"class"`
	Name     string          `json:"name"`
	Invoke
}

// Int decodes the literal as a 64-bit integer.
func (v *Value) Int() (int64, bool) {
	var n int64
	if err := json.Unmarshal(v.Raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// Bool decodes the literal as a boolean. Integers are accepted, nonzero
// meaning true.
func (v *Value) Bool() (bool, bool) {
	var b bool
	if err := json.Unmarshal(v.Raw, &b); err == nil {
		return b, true
	}
	if n, ok := v.Int(); ok {
		return n != 0, true
	}
	return false, false
}

// Str decodes the literal as a string.
func (v *Value) Str() (string, bool) {
	var s string
	if err := json.Unmarshal(v.Raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// EdgeDescriptor is an explicitly listed call edge.
type EdgeDescriptor struct {
	Src       string `json:"src"`
	Tgt       string `json:"tgt"`
	Kind      string `json:"kind"`
	InvokeIdx int64  `json:"invoke_idx"`
	Cls       string `json:"cls"` // Class under analysis when the edge was found
}

// IccLinkDescriptor is a raw inter-component link record.
type IccLinkDescriptor struct {
	FromU        int64  `json:"fromU"`
	FromSm       string `json:"fromSm"`
	DestinationC string `json:"destinationC"`
}
