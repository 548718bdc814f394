package storage

import (
	"testing"
	"time"

	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/nativecg"
	"github.com/mvp-joe/dryjin/internal/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for run storage:
// - CreateSchema is idempotent and records the schema version
// - GetSchemaVersion reports "0" for an empty database
// - WriteRun generates IDs and round-trips runs, methods, edges and ICC links
// - ReadEdges filters by caller and callee, and keeps NULL statement indices
// - ReadRuns orders newest first, LatestRun returns ErrNoRuns on an empty database
// - DeleteRun cascades to every child table
// - NewRunData converts importer output, skipping duplicate methods
// - ICC links at repeated nop statements keep their own positions
// - A file database written by NewRunWriter is readable by NewRunReader

func intPtr(i int) *int { return &i }

func sampleRun(jsonFile string, created time.Time) *RunData {
	return &RunData{
		Run: Run{
			JSONFile:    jsonFile,
			Strategy:    nativecg.StrategyCanonical,
			CreatedAt:   created,
			NodesBuilt:  2,
			EdgesQueued: 2,
			IccLinks:    1,
		},
		Methods: []MethodRecord{
			{Signature: "<A: void f()>", ClassName: "A", Name: "f", Modifiers: int(program.Public), StmtCount: 2, Body: "body"},
			{Signature: "<DummyNative: int g(int)>", ClassName: "DummyNative", Name: "g", Modifiers: int(program.Public | program.Static), IsStatic: true, Phantom: true},
		},
		Edges: []CallEdgeRecord{
			{Src: "<A: void f()>", Tgt: "<DummyNative: int g(int)>", Kind: "STATIC", StmtIndex: intPtr(0), Stmt: "staticinvoke"},
			{Src: "<dummyMainClass: void dummyMainMethod(java.lang.String[])>", Tgt: "<A: void f()>", Kind: "VIRTUAL"},
		},
		IccLinks: []IccLinkRecord{
			{FromMethod: "<A: void f()>", StmtIndex: 1, Stmt: "virtualinvoke", ToClass: "com.example.Target", ExitKind: nativecg.ExitKindActivity},
		},
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	require.NoError(t, CreateSchema(db))

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestGetSchemaVersion_EmptyDatabase(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	_, err := db.Exec("DROP TABLE metadata")
	require.NoError(t, err)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "0", version)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewRunWriterWithDB(db)
	reader := NewRunReaderWithDB(db)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runID, err := writer.WriteRun(sampleRun("callgraph.json", created))
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := reader.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, "callgraph.json", run.JSONFile)
	assert.Equal(t, nativecg.StrategyCanonical, run.Strategy)
	assert.True(t, created.Equal(run.CreatedAt))
	assert.Equal(t, 2, run.NodesBuilt)
	assert.Equal(t, 1, run.IccLinks)

	methods, err := reader.ReadMethods(runID)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "<A: void f()>", methods[0].Signature)
	assert.False(t, methods[0].Phantom)
	assert.True(t, methods[1].Phantom)
	assert.True(t, methods[1].IsStatic)

	edges, err := reader.ReadEdges(runID, EdgeFilter{})
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.NotEmpty(t, e.ID)
	}

	links, err := reader.ReadIccLinks(runID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "com.example.Target", links[0].ToClass)
	assert.Equal(t, 1, links[0].StmtIndex)
}

func TestWriteRun_NilData(t *testing.T) {
	t.Parallel()

	_, err := NewRunWriterWithDB(NewTestDB(t)).WriteRun(nil)
	assert.Error(t, err)
}

func TestReadEdges_Filter(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	runID, err := NewRunWriterWithDB(db).WriteRun(sampleRun("callgraph.json", time.Now()))
	require.NoError(t, err)
	reader := NewRunReaderWithDB(db)

	out, err := reader.ReadEdges(runID, EdgeFilter{Src: "<A: void f()>"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "STATIC", out[0].Kind)
	require.NotNil(t, out[0].StmtIndex)
	assert.Equal(t, 0, *out[0].StmtIndex)

	in, err := reader.ReadEdges(runID, EdgeFilter{Tgt: "<A: void f()>"})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "VIRTUAL", in[0].Kind)
	assert.Nil(t, in[0].StmtIndex)

	none, err := reader.ReadEdges("missing-run", EdgeFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReadRuns_NewestFirst(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewRunWriterWithDB(db)
	reader := NewRunReaderWithDB(db)

	_, err := reader.LatestRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older, err := writer.WriteRun(sampleRun("old.json", base))
	require.NoError(t, err)
	newer, err := writer.WriteRun(sampleRun("new.json", base.Add(time.Hour)))
	require.NoError(t, err)

	runs, err := reader.ReadRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer, runs[0].ID)
	assert.Equal(t, older, runs[1].ID)
}

func TestDeleteRun_Cascades(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	writer := NewRunWriterWithDB(db)
	runID, err := writer.WriteRun(sampleRun("callgraph.json", time.Now()))
	require.NoError(t, err)

	require.NoError(t, writer.DeleteRun(runID))

	for _, table := range []string{"runs", "methods", "call_edges", "icc_links"} {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}
}

func TestNewRunData_ConvertsImporterOutput(t *testing.T) {
	t.Parallel()

	s := program.NewScene()
	t.Cleanup(s.Close)

	g := program.NewMethod("g", nil, ir.Void, program.Public|program.Static)
	require.NoError(t, s.MakeClass("B").AddMethod(g))
	g.Phantom = true

	f := program.NewMethod("f", nil, ir.Void, program.Public)
	require.NoError(t, s.MakeClass("A").AddMethod(f))
	call := &ir.InvokeStmt{Expr: &ir.StaticInvokeExpr{Ref: g.Ref()}}
	body := ir.NewBody(f.Signature())
	body.Add(&ir.NopStmt{}, call, &ir.ReturnVoidStmt{})
	require.NoError(t, f.SetBody(body))

	target := s.MakeClass("com.example.Target")
	stats := nativecg.Stats{NodesBuilt: 1, EdgesQueued: 1, IccLinks: 1}
	edges := []callgraph.Edge{
		{Src: f, Stmt: call, Tgt: g, Kind: callgraph.Static},
		{Src: f, Tgt: g, Kind: callgraph.Clinit},
	}
	links := []nativecg.IccLink{{FromMethod: f, FromStmt: call, ToClass: target, ExitKind: nativecg.ExitKindActivity}}

	data := NewRunData("in.json", nativecg.StrategyLegacy, stats, []*program.Method{f, g, f}, edges, links)

	assert.Equal(t, "in.json", data.Run.JSONFile)
	assert.Equal(t, nativecg.StrategyLegacy, data.Run.Strategy)
	assert.Equal(t, 1, data.Run.NodesBuilt)
	assert.False(t, data.Run.CreatedAt.IsZero())

	require.Len(t, data.Methods, 2)
	assert.Equal(t, f.Signature(), data.Methods[0].Signature)
	assert.Equal(t, "A", data.Methods[0].ClassName)
	assert.Equal(t, 3, data.Methods[0].StmtCount)
	assert.Equal(t, body.String(), data.Methods[0].Body)
	assert.True(t, data.Methods[1].Phantom)
	assert.True(t, data.Methods[1].IsStatic)
	assert.Zero(t, data.Methods[1].StmtCount)

	require.Len(t, data.Edges, 2)
	assert.Equal(t, "STATIC", data.Edges[0].Kind)
	require.NotNil(t, data.Edges[0].StmtIndex)
	assert.Equal(t, 1, *data.Edges[0].StmtIndex)
	assert.Equal(t, call.String(), data.Edges[0].Stmt)
	assert.Nil(t, data.Edges[1].StmtIndex)
	assert.Empty(t, data.Edges[1].Stmt)

	require.Len(t, data.IccLinks, 1)
	assert.Equal(t, 1, data.IccLinks[0].StmtIndex)
	assert.Equal(t, "com.example.Target", data.IccLinks[0].ToClass)
}

func TestNewRunData_IccLinkAtRepeatedNop(t *testing.T) {
	t.Parallel()

	s := program.NewScene()
	t.Cleanup(s.Close)

	f := program.NewMethod("f", nil, ir.Void, program.Public)
	require.NoError(t, s.MakeClass("A").AddMethod(f))
	first, second := &ir.NopStmt{}, &ir.NopStmt{}
	body := ir.NewBody(f.Signature())
	body.Add(first, second, &ir.ReturnVoidStmt{})
	require.NoError(t, f.SetBody(body))

	target := s.MakeClass("com.example.Target")
	links := []nativecg.IccLink{
		{FromMethod: f, FromStmt: second, ToClass: target, ExitKind: nativecg.ExitKindActivity},
		{FromMethod: f, FromStmt: first, ToClass: target, ExitKind: nativecg.ExitKindActivity},
	}

	data := NewRunData("in.json", nativecg.StrategyCanonical, nativecg.Stats{IccLinks: 2}, []*program.Method{f}, nil, links)

	require.Len(t, data.IccLinks, 2)
	assert.Equal(t, 1, data.IccLinks[0].StmtIndex)
	assert.Equal(t, 0, data.IccLinks[1].StmtIndex)
	assert.Equal(t, "nop", data.IccLinks[0].Stmt)
}

func TestRunWriter_FileDatabase(t *testing.T) {
	t.Parallel()

	path := NewTestDBFile(t)

	writer, err := NewRunWriter(path)
	require.NoError(t, err)
	runID, err := writer.WriteRun(sampleRun("callgraph.json", time.Now()))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := NewRunReader(path)
	require.NoError(t, err)
	defer reader.Close()

	run, err := reader.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
}
