package nativecg

import (
	"fmt"

	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/oracle"
	"github.com/mvp-joe/dryjin/internal/program"
	"go.uber.org/zap"
)

// loadEdges resolves the explicitly listed edges. Unresolvable descriptors
// are discarded one at a time.
func (imp *Importer) loadEdges() {
	if imp.doc.Edges == nil {
		imp.logger.Error("document has no edges array, nothing to merge")
		return
	}

	for _, desc := range imp.doc.Edges {
		e, err := imp.resolveEdge(desc)
		if err != nil {
			imp.stats.EdgesDiscarded++
			imp.logger.Debug("discarding edge descriptor",
				zap.String("src", desc.Src),
				zap.String("tgt", desc.Tgt),
				zap.String("cls", desc.Cls),
				zap.Int64("invoke_idx", desc.InvokeIdx),
				zap.Error(err))
			continue
		}
		imp.queueEdge(e.Src, e.Stmt, e.Tgt, e.Kind)
	}
}

// resolveEdge locates the call site of an edge descriptor. Targets named
// after an async callback hook are looked up one invoke later, since the
// framework injects a dispatch call ahead of them.
func (imp *Importer) resolveEdge(desc oracle.EdgeDescriptor) (callgraph.Edge, error) {
	src := imp.model.GrabMethod(desc.Src)
	if src == nil {
		return callgraph.Edge{}, notFound(ErrMethodNotFound, "source", desc.Src)
	}
	tgt := imp.model.GrabMethod(desc.Tgt)
	if tgt == nil {
		return callgraph.Edge{}, notFound(ErrMethodNotFound, "target", desc.Tgt)
	}

	index := desc.InvokeIdx
	callback := imp.isCallbackHook(tgt.Name)
	if callback {
		index++
	}

	stmt, err := findInvokeStmt(src, index)
	if err != nil && callback {
		stmt, err = findInvokeStmt(src, imp.strategy.CallbackRetry.retryIndex(desc.InvokeIdx, index))
	}
	if err != nil {
		return callgraph.Edge{}, err
	}

	kind, err := callgraph.ParseKind(desc.Kind)
	if err != nil {
		return callgraph.Edge{}, err
	}

	return callgraph.Edge{Src: src, Stmt: stmt, Tgt: tgt, Kind: kind}, nil
}

// findInvokeStmt returns the index-th (0-based) invoke-bearing statement of
// m's body.
func findInvokeStmt(m *program.Method, index int64) (ir.Stmt, error) {
	if !m.HasBody() {
		return nil, notFound(ErrNoBody, "method", m.Signature())
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: negative invoke index %d in %s", ErrStmtNotFound, index, m.Signature())
	}

	var n int64
	for _, s := range m.Body().Units {
		if !ir.HasInvoke(s) {
			continue
		}
		if n == index {
			return s, nil
		}
		n++
	}
	return nil, fmt.Errorf("%w: invoke %d of %d in %s", ErrStmtNotFound, index, n, m.Signature())
}
