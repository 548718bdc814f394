package program

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/dryjin/internal/ir"
)

// Method is a method declared on a Class.
type Method struct {
	Name      string
	Params    []ir.Type
	Return    ir.Type
	Modifiers Modifier
	Phantom   bool

	class *Class
	body  *ir.Body
}

// NewMethod creates an undeclared method. Use Class.AddMethod to attach it.
func NewMethod(name string, params []ir.Type, ret ir.Type, mods Modifier) *Method {
	return &Method{
		Name:      name,
		Params:    params,
		Return:    ret,
		Modifiers: mods,
	}
}

// Class returns the declaring class, or nil before AddMethod.
func (m *Method) Class() *Class { return m.class }

func (m *Method) IsStatic() bool { return m.Modifiers.Has(Static) }

// SubSignature renders "ret name(p1,p2)".
func (m *Method) SubSignature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.String()
	}
	return m.Return.String() + " " + m.Name + "(" + strings.Join(params, ",") + ")"
}

// Signature renders "<Class: ret name(p1,p2)>".
func (m *Method) Signature() string {
	className := ""
	if m.class != nil {
		className = m.class.Name
	}
	return "<" + className + ": " + m.SubSignature() + ">"
}

func (m *Method) HasBody() bool { return m.body != nil }

// Body returns the active body, or nil.
func (m *Method) Body() *ir.Body { return m.body }

// SetBody installs b as the active body. A method owns at most one body.
func (m *Method) SetBody(b *ir.Body) error {
	if m.body != nil {
		return fmt.Errorf("%w: %s", ErrBodyInstalled, m.Signature())
	}
	m.body = b
	return nil
}

// Ref returns an IR reference to the method for building invoke expressions.
func (m *Method) Ref() ir.MethodRef {
	className := ""
	if m.class != nil {
		className = m.class.Name
	}
	return ir.MethodRef{
		Class:  className,
		Name:   m.Name,
		Params: m.Params,
		Return: m.Return,
		Static: m.IsStatic(),
	}
}
