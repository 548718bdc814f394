package callgraph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/program"
)

// Edge is a call from Src to Tgt. Stmt is the call site in Src's body and
// may be nil when the site is unknown.
type Edge struct {
	Src  *program.Method
	Stmt ir.Stmt
	Tgt  *program.Method
	Kind Kind
}

func (e Edge) String() string {
	return fmt.Sprintf("%s ==%s==> %s", e.Src.Signature(), e.Kind, e.Tgt.Signature())
}

type edgeKey struct {
	src  *program.Method
	stmt ir.Stmt
	tgt  *program.Method
	kind Kind
}

// CallGraph holds call edges between methods. Edges are unique by
// (src, stmt, tgt, kind); the method-level adjacency is kept in a
// dominikbraun/graph directed graph keyed by signature.
type CallGraph struct {
	mu sync.RWMutex // Protects all fields

	edges []Edge
	seen  map[edgeKey]struct{}
	g     graph.Graph[string, string]
}

// New creates an empty call graph.
func New() *CallGraph {
	return &CallGraph{
		seen: make(map[edgeKey]struct{}),
		g:    graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddEdge adds e and reports whether it was new.
func (cg *CallGraph) AddEdge(e Edge) bool {
	if e.Src == nil || e.Tgt == nil {
		return false
	}

	cg.mu.Lock()
	defer cg.mu.Unlock()

	key := edgeKey{src: e.Src, stmt: e.Stmt, tgt: e.Tgt, kind: e.Kind}
	if _, ok := cg.seen[key]; ok {
		return false
	}
	cg.seen[key] = struct{}{}
	cg.edges = append(cg.edges, e)

	// Vertices and adjacency are shared by every call site between the same
	// pair of methods, so "already exists" errors are expected here.
	src, tgt := e.Src.Signature(), e.Tgt.Signature()
	_ = cg.g.AddVertex(src)
	_ = cg.g.AddVertex(tgt)
	_ = cg.g.AddEdge(src, tgt)

	return true
}

// Size returns the number of edges.
func (cg *CallGraph) Size() int {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return len(cg.edges)
}

// Edges returns all edges in insertion order.
func (cg *CallGraph) Edges() []Edge {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	out := make([]Edge, len(cg.edges))
	copy(out, cg.edges)
	return out
}

// EdgesOutOf returns the edges whose source is m.
func (cg *CallGraph) EdgesOutOf(m *program.Method) []Edge {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	var out []Edge
	for _, e := range cg.edges {
		if e.Src == m {
			out = append(out, e)
		}
	}
	return out
}

// EdgesInto returns the edges whose target is m.
func (cg *CallGraph) EdgesInto(m *program.Method) []Edge {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	var out []Edge
	for _, e := range cg.edges {
		if e.Tgt == m {
			out = append(out, e)
		}
	}
	return out
}

// Callees returns the sorted signatures called directly by signature.
func (cg *CallGraph) Callees(signature string) ([]string, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	adjacency, err := cg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency: %w", err)
	}
	return sortedKeys(adjacency[signature]), nil
}

// Callers returns the sorted signatures that call signature directly.
func (cg *CallGraph) Callers(signature string) ([]string, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	predecessors, err := cg.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read predecessors: %w", err)
	}
	return sortedKeys(predecessors[signature]), nil
}

// Reachable returns the sorted signatures transitively reachable from
// signature, excluding signature itself unless it lies on a cycle.
func (cg *CallGraph) Reachable(signature string) ([]string, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if _, err := cg.g.Vertex(signature); err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			return nil, nil
		}
		return nil, err
	}

	adjacency, err := cg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency: %w", err)
	}

	reached := make(map[string]bool)
	err = graph.BFS(cg.g, signature, func(v string) bool {
		if v != signature {
			reached[v] = true
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse call graph: %w", err)
	}

	// BFS never revisits the start vertex; detect self-reachability explicitly
	for v := range reached {
		if _, ok := adjacency[v][signature]; ok {
			reached[signature] = true
			break
		}
	}
	if _, ok := adjacency[signature][signature]; ok {
		reached[signature] = true
	}

	out := make([]string, 0, len(reached))
	for v := range reached {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
