package program

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/dryjin/internal/ir"
)

var (
	// ErrDuplicateMethod indicates a class already declares the subsignature
	ErrDuplicateMethod = errors.New("duplicate method")

	// ErrBodyInstalled indicates a method already owns an active body
	ErrBodyInstalled = errors.New("body already installed")
)

// Modifier is a bit set of Java access flags.
type Modifier int

const (
	Public    Modifier = 0x0001
	Private   Modifier = 0x0002
	Protected Modifier = 0x0004
	Static    Modifier = 0x0008
	Final     Modifier = 0x0010
	Native    Modifier = 0x0100
	Abstract  Modifier = 0x0400
)

// Has reports whether all bits of f are set.
func (m Modifier) Has(f Modifier) bool { return m&f == f }

// Class is a class known to the program model.
type Class struct {
	Name        string
	Modifiers   Modifier
	Phantom     bool // Referenced but never defined
	Application bool // Part of the analyzed application

	methods  []*Method
	bySubSig map[string]*Method
	fields   map[string]*Field
}

func newClass(name string) *Class {
	return &Class{
		Name:     name,
		bySubSig: make(map[string]*Method),
		fields:   make(map[string]*Field),
	}
}

// Type returns the reference type of the class.
func (c *Class) Type() ir.RefType { return ir.RefType{ClassName: c.Name} }

// SetApplication marks the class as analyzed application code.
func (c *Class) SetApplication() {
	c.Application = true
	c.Phantom = false
}

// Methods returns the declared methods in declaration order.
func (c *Class) Methods() []*Method {
	out := make([]*Method, len(c.methods))
	copy(out, c.methods)
	return out
}

// MethodBySubSignature returns the method with subsignature "ret name(p1,p2)", or nil.
func (c *Class) MethodBySubSignature(subSig string) *Method {
	return c.bySubSig[subSig]
}

// AddMethod declares m on the class.
func (c *Class) AddMethod(m *Method) error {
	sub := m.SubSignature()
	if _, exists := c.bySubSig[sub]; exists {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateMethod, sub, c.Name)
	}
	m.class = c
	c.methods = append(c.methods, m)
	c.bySubSig[sub] = m
	return nil
}

// FieldOrCreate returns the named field, declaring it when absent.
func (c *Class) FieldOrCreate(name string, t ir.Type, static bool) *Field {
	if f, ok := c.fields[name]; ok {
		return f
	}
	f := &Field{Name: name, Typ: t, Static: static, class: c}
	c.fields[name] = f
	return f
}

// Field is a declared field.
type Field struct {
	Name   string
	Typ    ir.Type
	Static bool

	class *Class
}

// Ref returns the IR field signature.
func (f *Field) Ref() ir.FieldSig {
	return ir.FieldSig{Class: f.class.Name, Name: f.Name, Typ: f.Typ, Static: f.Static}
}
