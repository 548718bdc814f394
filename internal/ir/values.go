package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is anything that can appear as a statement operand.
type Value interface {
	Type() Type
	String() string
}

// Local is a method-scoped variable. Locals are compared by identity.
type Local struct {
	Name string
	Typ  Type
}

func (l *Local) Type() Type      { return l.Typ }
func (l *Local) String() string { return l.Name }

// Constants

type IntConstant struct{ Value int32 }

func (IntConstant) Type() Type       { return Int }
func (c IntConstant) String() string { return strconv.FormatInt(int64(c.Value), 10) }

type LongConstant struct{ Value int64 }

func (LongConstant) Type() Type       { return Long }
func (c LongConstant) String() string { return strconv.FormatInt(c.Value, 10) + "L" }

type FloatConstant struct{ Value float32 }

func (FloatConstant) Type() Type { return Float }
func (c FloatConstant) String() string {
	return strconv.FormatFloat(float64(c.Value), 'g', -1, 32) + "F"
}

type DoubleConstant struct{ Value float64 }

func (DoubleConstant) Type() Type       { return Double }
func (c DoubleConstant) String() string { return strconv.FormatFloat(c.Value, 'g', -1, 64) }

type StringConstant struct{ Value string }

func (StringConstant) Type() Type       { return StringType }
func (c StringConstant) String() string { return strconv.Quote(c.Value) }

type NullConstant struct{}

func (NullConstant) Type() Type     { return Null }
func (NullConstant) String() string { return "null" }

// Allocation expressions

// NewExpr allocates an instance of Class.
type NewExpr struct {
	Class RefType
}

func (e *NewExpr) Type() Type      { return e.Class }
func (e *NewExpr) String() string { return "new " + e.Class.String() }

// NewArrayExpr allocates an array of Elem with Size elements.
type NewArrayExpr struct {
	Elem Type
	Size Value
}

func (e *NewArrayExpr) Type() Type { return ArrayType{Elem: e.Elem} }
func (e *NewArrayExpr) String() string {
	return fmt.Sprintf("newarray (%s)[%s]", e.Elem, e.Size)
}

// Method and field references

// MethodRef identifies a callee by declaring class and subsignature.
type MethodRef struct {
	Class  string
	Name   string
	Params []Type
	Return Type
	Static bool
}

// SubSignature renders "ret name(p1,p2)".
func (r MethodRef) SubSignature() string {
	params := make([]string, len(r.Params))
	for i, p := range r.Params {
		params[i] = p.String()
	}
	return r.Return.String() + " " + r.Name + "(" + strings.Join(params, ",") + ")"
}

// Signature renders "<Class: ret name(p1,p2)>".
func (r MethodRef) Signature() string {
	return "<" + r.Class + ": " + r.SubSignature() + ">"
}

// FieldSig identifies a field by declaring class, name and type.
type FieldSig struct {
	Class  string
	Name   string
	Typ    Type
	Static bool
}

func (f FieldSig) Signature() string {
	return "<" + f.Class + ": " + f.Typ.String() + " " + f.Name + ">"
}

// Invoke expressions

// InvokeExpr is a call. Static and virtual dispatch are the two shapes
// produced by the importer.
type InvokeExpr interface {
	Value
	Method() MethodRef
	Arguments() []Value
}

type StaticInvokeExpr struct {
	Ref  MethodRef
	Args []Value
}

func (e *StaticInvokeExpr) Type() Type         { return e.Ref.Return }
func (e *StaticInvokeExpr) Method() MethodRef  { return e.Ref }
func (e *StaticInvokeExpr) Arguments() []Value { return e.Args }
func (e *StaticInvokeExpr) String() string {
	return "staticinvoke " + e.Ref.Signature() + "(" + joinValues(e.Args) + ")"
}

type VirtualInvokeExpr struct {
	Base *Local
	Ref  MethodRef
	Args []Value
}

func (e *VirtualInvokeExpr) Type() Type         { return e.Ref.Return }
func (e *VirtualInvokeExpr) Method() MethodRef  { return e.Ref }
func (e *VirtualInvokeExpr) Arguments() []Value { return e.Args }
func (e *VirtualInvokeExpr) String() string {
	return "virtualinvoke " + e.Base.String() + "." + e.Ref.Signature() + "(" + joinValues(e.Args) + ")"
}

// References

// Ref is a value naming a storage location or an incoming parameter.
type Ref interface {
	Value
	isRef()
}

type ThisRef struct {
	Typ RefType
}

func (r *ThisRef) Type() Type      { return r.Typ }
func (r *ThisRef) String() string { return "@this: " + r.Typ.String() }
func (*ThisRef) isRef()           {}

type ParameterRef struct {
	Typ   Type
	Index int
}

func (r *ParameterRef) Type() Type { return r.Typ }
func (r *ParameterRef) String() string {
	return fmt.Sprintf("@parameter%d: %s", r.Index, r.Typ)
}
func (*ParameterRef) isRef() {}

type StaticFieldRef struct {
	Field FieldSig
}

func (r *StaticFieldRef) Type() Type      { return r.Field.Typ }
func (r *StaticFieldRef) String() string { return r.Field.Signature() }
func (*StaticFieldRef) isRef()           {}

type InstanceFieldRef struct {
	Base  *Local
	Field FieldSig
}

func (r *InstanceFieldRef) Type() Type      { return r.Field.Typ }
func (r *InstanceFieldRef) String() string { return r.Base.String() + "." + r.Field.Signature() }
func (*InstanceFieldRef) isRef()           {}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
