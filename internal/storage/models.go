package storage

import "time"

// Records mirror the SQL tables in schema.go.
// These are plain transfer structs, not ORM models.

// Run is one persisted import. Maps to the runs table.
type Run struct {
	ID             string    `json:"id"`        // run_id: UUID
	JSONFile       string    `json:"json_file"` // oracle document that was imported
	Strategy       string    `json:"strategy"`  // importer strategy name
	CreatedAt      time.Time `json:"created_at"`
	NodesBuilt     int       `json:"nodes_built"`
	NodesSkipped   int       `json:"nodes_skipped"`
	EdgesQueued    int       `json:"edges_queued"`
	EdgesDiscarded int       `json:"edges_discarded"`
	SourcesAdded   int       `json:"sources_added"`
	SinksAdded     int       `json:"sinks_added"`
	IccLinks       int       `json:"icc_links"`
}

// MethodRecord is a method whose body was synthesized or called during a run.
// Maps to the methods table.
type MethodRecord struct {
	Signature string `json:"signature"` // full <Class: ret name(params)> form
	ClassName string `json:"class_name"`
	Name      string `json:"name"`
	Modifiers int    `json:"modifiers"` // program.Modifier bitset
	IsStatic  bool   `json:"is_static"`
	Phantom   bool   `json:"phantom"` // created to satisfy a call target
	StmtCount int    `json:"stmt_count"`
	Body      string `json:"body"` // printed IR, empty without a body
}

// CallEdgeRecord is one call graph edge. Maps to the call_edges table.
type CallEdgeRecord struct {
	ID        string `json:"id"`                   // edge_id: UUID
	Src       string `json:"src"`                  // caller signature
	Tgt       string `json:"tgt"`                  // callee signature
	Kind      string `json:"kind"`                 // STATIC, VIRTUAL, ...
	StmtIndex *int   `json:"stmt_index,omitempty"` // position in the caller body (nullable)
	Stmt      string `json:"stmt"`                 // printed call site
}

// IccLinkRecord is one inter-component link. Maps to the icc_links table.
type IccLinkRecord struct {
	ID         string `json:"id"` // link_id: UUID
	FromMethod string `json:"from_method"`
	StmtIndex  int    `json:"stmt_index"`
	Stmt       string `json:"stmt"`
	ToClass    string `json:"to_class"`
	ExitKind   string `json:"exit_kind"`
}

// RunData is everything written for a single run.
type RunData struct {
	Run      Run
	Methods  []MethodRecord
	Edges    []CallEdgeRecord
	IccLinks []IccLinkRecord
}
