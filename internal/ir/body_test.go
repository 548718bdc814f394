package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Body:
// - NewLocal names locals per type prefix and keeps them in order
// - InsertBeforeLast keeps the final statement last
// - InsertBeforeLast on an empty body appends
// - HasInvoke recognises invoke statements and call assignments only
// - IndexOf/InvokeCount reflect raw and invoke-filtered positions
// - IndexOf tells repeated nop and return statements apart

func TestBody_NewLocal_Naming(t *testing.T) {
	t.Parallel()

	b := NewBody("<A: void f()>")
	i0 := b.NewLocal(Int)
	r0 := b.NewLocal(RefType{ClassName: "A"})
	i1 := b.NewLocal(Int)
	arr := b.NewLocal(ArrayType{Elem: Int})

	assert.Equal(t, "$i0", i0.Name)
	assert.Equal(t, "$r0", r0.Name)
	assert.Equal(t, "$i1", i1.Name)
	assert.Equal(t, "$r1", arr.Name)
	assert.Equal(t, []*Local{i0, r0, i1, arr}, b.Locals)
}

func TestBody_InsertBeforeLast(t *testing.T) {
	t.Parallel()

	b := NewBody("<A: void f()>")
	ret := &ReturnVoidStmt{}
	b.Add(&NopStmt{}, ret)

	first := &NopStmt{}
	second := &NopStmt{}
	b.InsertBeforeLast(first, second)

	require.Len(t, b.Units, 4)
	assert.Same(t, first, b.Units[1])
	assert.Same(t, second, b.Units[2])
	assert.Same(t, ret, b.Units[3])
}

func TestBody_InsertBeforeLast_Empty(t *testing.T) {
	t.Parallel()

	b := NewBody("<A: void f()>")
	s := &NopStmt{}
	b.InsertBeforeLast(s)

	require.Len(t, b.Units, 1)
	assert.Same(t, s, b.Units[0])
}

func TestHasInvoke(t *testing.T) {
	t.Parallel()

	ref := MethodRef{Class: "B", Name: "g", Return: Void, Static: true}
	call := &StaticInvokeExpr{Ref: ref}
	local := &Local{Name: "$i0", Typ: Int}

	tests := []struct {
		name string
		stmt Stmt
		want bool
	}{
		{"invoke statement", &InvokeStmt{Expr: call}, true},
		{"assign from call", &AssignStmt{Left: local, Right: call}, true},
		{"assign from constant", &AssignStmt{Left: local, Right: IntConstant{Value: 1}}, false},
		{"nop", &NopStmt{}, false},
		{"return void", &ReturnVoidStmt{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasInvoke(tt.stmt))
		})
	}
}

func TestBody_IndexOfAndInvokeCount(t *testing.T) {
	t.Parallel()

	b := NewBody("<A: void f()>")
	call := &InvokeStmt{Expr: &StaticInvokeExpr{Ref: MethodRef{Class: "B", Name: "g", Return: Void}}}
	nop := &NopStmt{}
	b.Add(nop, call, &ReturnVoidStmt{})

	assert.Equal(t, 1, b.IndexOf(call))
	assert.Equal(t, -1, b.IndexOf(&NopStmt{}))
	assert.Equal(t, 1, b.InvokeCount())
}

func TestBody_IndexOf_RepeatedNops(t *testing.T) {
	t.Parallel()

	b := NewBody("<A: void f()>")
	first, second := &NopStmt{}, &NopStmt{}
	ret1, ret2 := &ReturnVoidStmt{}, &ReturnVoidStmt{}
	b.Add(first, second, ret1, ret2)

	assert.NotSame(t, first, second)
	assert.Equal(t, 0, b.IndexOf(first))
	assert.Equal(t, 1, b.IndexOf(second))
	assert.Equal(t, 2, b.IndexOf(ret1))
	assert.Equal(t, 3, b.IndexOf(ret2))
}

func TestMethodRef_Signature(t *testing.T) {
	t.Parallel()

	ref := MethodRef{
		Class:  "com.example.Native",
		Name:   "send",
		Params: []Type{Int, StringType, ArrayType{Elem: Byte}},
		Return: Void,
	}
	assert.Equal(t, "<com.example.Native: void send(int,java.lang.String,byte[])>", ref.Signature())
}
