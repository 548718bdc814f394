package storage

import (
	"time"

	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/nativecg"
	"github.com/mvp-joe/dryjin/internal/program"
)

// NewRunData converts importer output into storage records.
// Edges are usually the merged call graph's edges, so they may include
// edges that were present before the import.
func NewRunData(jsonFile, strategy string, stats nativecg.Stats, methods []*program.Method, edges []callgraph.Edge, links []nativecg.IccLink) *RunData {
	return &RunData{
		Run: Run{
			JSONFile:       jsonFile,
			Strategy:       strategy,
			CreatedAt:      time.Now().UTC(),
			NodesBuilt:     stats.NodesBuilt,
			NodesSkipped:   stats.NodesSkipped,
			EdgesQueued:    stats.EdgesQueued,
			EdgesDiscarded: stats.EdgesDiscarded,
			SourcesAdded:   stats.SourcesAdded,
			SinksAdded:     stats.SinksAdded,
			IccLinks:       stats.IccLinks,
		},
		Methods:  convertMethods(methods),
		Edges:    convertEdges(edges),
		IccLinks: convertIccLinks(links),
	}
}

func convertMethods(methods []*program.Method) []MethodRecord {
	records := make([]MethodRecord, 0, len(methods))
	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		sig := m.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true

		rec := MethodRecord{
			Signature: sig,
			Name:      m.Name,
			Modifiers: int(m.Modifiers),
			IsStatic:  m.IsStatic(),
			Phantom:   m.Phantom,
		}
		if c := m.Class(); c != nil {
			rec.ClassName = c.Name
		}
		if m.HasBody() {
			rec.StmtCount = len(m.Body().Units)
			rec.Body = m.Body().String()
		}
		records = append(records, rec)
	}
	return records
}

func convertEdges(edges []callgraph.Edge) []CallEdgeRecord {
	records := make([]CallEdgeRecord, 0, len(edges))
	for _, e := range edges {
		rec := CallEdgeRecord{
			Src:  e.Src.Signature(),
			Tgt:  e.Tgt.Signature(),
			Kind: e.Kind.String(),
		}
		if e.Stmt != nil {
			rec.Stmt = e.Stmt.String()
			if e.Src.HasBody() {
				if idx := e.Src.Body().IndexOf(e.Stmt); idx >= 0 {
					rec.StmtIndex = &idx
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

func convertIccLinks(links []nativecg.IccLink) []IccLinkRecord {
	records := make([]IccLinkRecord, 0, len(links))
	for _, l := range links {
		rec := IccLinkRecord{
			FromMethod: l.FromMethod.Signature(),
			StmtIndex:  l.FromMethod.Body().IndexOf(l.FromStmt),
			Stmt:       l.FromStmt.String(),
			ToClass:    l.ToClass.Name,
			ExitKind:   l.ExitKind,
		}
		records = append(records, rec)
	}
	return records
}
