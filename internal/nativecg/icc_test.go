package nativecg

import (
	"testing"

	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for ICC link extraction:
// - fromU addresses raw statement positions, invoke or not
// - Links carry the Activity exit kind and the destination class
// - Missing method, missing body, out-of-range unit and unknown class drop the record
// - A link at one of several nops keeps its own position
// - The legacy strategy extracts nothing

const iccDoc = `{
  "nodes": [{"class": "A", "name": "f", "ret": "void", "params": "()", "body": [
    {"stmt_type": "identity", "local": {"stmt_type": "local", "index": 0, "type": "this"}, "param_ref": {"stmt_type": "this_ref"}},
    {"stmt_type": "invoke", "callee": "<android.content.Context: void startActivity(android.content.Intent)>", "args": [null], "is_static": false, "base": 0},
    {"stmt_type": "return_void"}
  ]}],
  "edges": [],
  "icc_links": [
    {"fromU": 1, "fromSm": "<A: void f()>", "destinationC": "com.example.Target"},
    {"fromU": 3, "fromSm": "<A: void f()>", "destinationC": "com.example.Target"},
    {"fromU": 0, "fromSm": "<A: void missing()>", "destinationC": "com.example.Target"},
    {"fromU": 0, "fromSm": "<A: void bodiless()>", "destinationC": "com.example.Target"},
    {"fromU": 0, "fromSm": "<A: void f()>", "destinationC": "com.example.Unknown"}
  ]
}`

func TestLoad_IccLinks(t *testing.T) {
	t.Parallel()

	s := newScene(t)
	f := declare(t, s, "A", "f", nil, ir.Void, program.Public)
	declare(t, s, "A", "bodiless", nil, ir.Void, program.Public)
	target := s.MakeClass("com.example.Target")

	imp := New(s)
	require.NoError(t, imp.Load(writeDoc(t, iccDoc), ""))

	links := imp.IccLinks()
	require.Len(t, links, 1)
	assert.Equal(t, IccLink{
		FromMethod: f,
		FromStmt:   f.Body().Units[1],
		ToClass:    target,
		ExitKind:   ExitKindActivity,
	}, links[0])
	assert.IsType(t, &ir.InvokeStmt{}, links[0].FromStmt)

	assert.Equal(t, 1, imp.Stats().IccLinks)
	assert.Equal(t, 4, imp.Stats().IccLinksDropped)
}

func TestLoad_IccLinkAtRepeatedNop(t *testing.T) {
	t.Parallel()

	s := newScene(t)
	f := declare(t, s, "A", "f", nil, ir.Void, program.Public)
	s.MakeClass("com.example.Target")

	imp := New(s)
	require.NoError(t, imp.Load(writeDoc(t, `{
  "nodes": [{"class": "A", "name": "f", "ret": "void", "params": "()", "body": [
    {"stmt_type": "other"},
    {"stmt_type": "other"},
    {"stmt_type": "return_void"}
  ]}],
  "edges": [],
  "icc_links": [{"fromU": 1, "fromSm": "<A: void f()>", "destinationC": "com.example.Target"}]
}`), ""))

	units := f.Body().Units
	require.Len(t, units, 3)
	assert.IsType(t, &ir.NopStmt{}, units[0])
	assert.NotSame(t, units[0], units[1])

	links := imp.IccLinks()
	require.Len(t, links, 1)
	assert.Same(t, units[1], links[0].FromStmt)
	assert.Equal(t, 1, f.Body().IndexOf(links[0].FromStmt))
}

func TestLoad_IccLinksLegacy(t *testing.T) {
	t.Parallel()

	s := newScene(t)
	declare(t, s, "A", "f", nil, ir.Void, program.Public)
	s.MakeClass("com.example.Target")

	imp := New(s, WithStrategy(Legacy()))
	require.NoError(t, imp.Load(writeDoc(t, iccDoc), ""))

	assert.Empty(t, imp.IccLinks())
	assert.Equal(t, 0, imp.Stats().IccLinksDropped)
}
