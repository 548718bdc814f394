package program

import (
	"testing"

	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the program model:
// - ParseType handles primitives, None, arrays, quoted and invalid tokens
// - ParseSignature splits class, return, name and normalized params
// - ParseSignature rejects malformed text
// - GrabMethod finds methods by signature, tolerating quotes and spacing
// - MakeClass is resolve-or-create and marks new classes phantom
// - AddMethod rejects duplicate subsignatures
// - SetBody installs at most one body

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  ir.Type
	}{
		{"int", ir.Int},
		{"void", ir.Void},
		{"None", ir.Null},
		{" 'java.lang.String' ", ir.StringType},
		{"byte[]", ir.ArrayType{Elem: ir.Byte}},
		{"java.lang.Object[][]", ir.ArrayType{Elem: ir.ArrayType{Elem: ir.ObjectType}}},
		{"a.b.Outer$Inner", ir.RefType{ClassName: "a.b.Outer$Inner"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseType(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseType_Invalid(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "  ", "void[]", "a..b", "1abc", "int*"} {
		_, err := ParseType(token)
		assert.ErrorIs(t, err, ErrUnknownType, "token %q", token)
	}
}

func TestParseSignature(t *testing.T) {
	t.Parallel()

	sig, err := ParseSignature("<DummyNative: void printf(None,'java.lang.String')>")
	require.NoError(t, err)

	assert.Equal(t, "DummyNative", sig.Class)
	assert.Equal(t, "void", sig.Return)
	assert.Equal(t, "printf", sig.Name)
	assert.Equal(t, []string{"None", "java.lang.String"}, sig.Params)
	assert.Equal(t, "void printf(null_type,java.lang.String)", sig.SubSignature())
}

func TestParseSignature_NoParams(t *testing.T) {
	t.Parallel()

	sig, err := ParseSignature("<A: void f()>")
	require.NoError(t, err)
	assert.Empty(t, sig.Params)
	assert.Equal(t, "void f()", sig.SubSignature())
}

func TestParseSignature_Malformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "A: void f()", "<void f()>", "<A: f()>", "<A: void f>"} {
		_, err := ParseSignature(s)
		assert.ErrorIs(t, err, ErrBadSignature, "signature %q", s)
	}
}

func TestScene_GrabMethod(t *testing.T) {
	t.Parallel()

	s := NewScene()
	defer s.Close()

	c := s.MakeClass("com.example.Lib")
	m := NewMethod("send", []ir.Type{ir.Int, ir.StringType}, ir.Void, Public|Static)
	require.NoError(t, c.AddMethod(m))

	assert.Same(t, m, s.GrabMethod("<com.example.Lib: void send(int,java.lang.String)>"))
	assert.Same(t, m, s.GrabMethod("<com.example.Lib: void send(int, 'java.lang.String')>"))
	// Cached parse returns the same answer
	assert.Same(t, m, s.GrabMethod("<com.example.Lib: void send(int,java.lang.String)>"))

	assert.Nil(t, s.GrabMethod("<com.example.Lib: void send(int)>"))
	assert.Nil(t, s.GrabMethod("<com.example.Missing: void send(int)>"))
	assert.Nil(t, s.GrabMethod("not a signature"))

	assert.Equal(t, "<com.example.Lib: void send(int,java.lang.String)>", m.Signature())
}

func TestScene_MakeClass(t *testing.T) {
	t.Parallel()

	s := NewScene()
	defer s.Close()

	assert.Nil(t, s.Class("A"))

	a := s.MakeClass("A")
	assert.True(t, a.Phantom)
	assert.Same(t, a, s.MakeClass("A"))
	assert.Same(t, a, s.Class("A"))

	a.SetApplication()
	assert.False(t, a.Phantom)
	assert.True(t, a.Application)

	s.MakeClass("B")
	names := []string{}
	for _, c := range s.Classes() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestClass_AddMethod_Duplicate(t *testing.T) {
	t.Parallel()

	c := newClass("A")
	require.NoError(t, c.AddMethod(NewMethod("f", nil, ir.Void, Public)))

	err := c.AddMethod(NewMethod("f", nil, ir.Void, Public|Static))
	assert.ErrorIs(t, err, ErrDuplicateMethod)
	assert.Len(t, c.Methods(), 1)
}

func TestMethod_SetBody(t *testing.T) {
	t.Parallel()

	c := newClass("A")
	m := NewMethod("f", nil, ir.Void, Public)
	require.NoError(t, c.AddMethod(m))

	assert.False(t, m.HasBody())
	require.NoError(t, m.SetBody(ir.NewBody(m.Signature())))
	assert.True(t, m.HasBody())

	err := m.SetBody(ir.NewBody(m.Signature()))
	assert.ErrorIs(t, err, ErrBodyInstalled)
}

func TestClass_FieldOrCreate(t *testing.T) {
	t.Parallel()

	c := newClass("A")
	f := c.FieldOrCreate("count", ir.Int, true)
	assert.Same(t, f, c.FieldOrCreate("count", ir.Long, false))
	assert.Equal(t, ir.FieldSig{Class: "A", Name: "count", Typ: ir.Int, Static: true}, f.Ref())
}
