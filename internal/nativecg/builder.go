package nativecg

import (
	"time"

	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/oracle"
	"github.com/mvp-joe/dryjin/internal/program"
	"go.uber.org/zap"
)

// loadNodes synthesizes a body for every node whose method does not have one.
func (imp *Importer) loadNodes() {
	if imp.doc.Nodes == nil {
		imp.logger.Info("document has no nodes, skipping body synthesis")
		return
	}

	dummy := imp.model.MakeClass(imp.names.DummyNativeClass)
	dummy.Modifiers = program.Public | program.Static
	dummy.SetApplication()

	start := time.Now()
	total := len(imp.doc.Nodes)
	if imp.progress != nil {
		imp.progress.OnBuildStart(total)
	}

	for i := range imp.doc.Nodes {
		node := &imp.doc.Nodes[i]
		m := imp.buildNode(node)
		if m != nil {
			imp.built = append(imp.built, m)
			imp.stats.NodesBuilt++
		} else {
			imp.stats.NodesSkipped++
		}
		if imp.progress != nil {
			imp.progress.OnNodeProcessed(i+1, total, nodeSignature(node))
		}
	}

	if imp.progress != nil {
		imp.progress.OnBuildComplete(imp.stats.NodesBuilt, imp.stats.NodesSkipped, time.Since(start))
	}
}

// buildNode resolves the node's method and installs a synthesized body. It
// returns nil when the method cannot be resolved or already has a body.
func (imp *Importer) buildNode(node *oracle.MethodNode) *program.Method {
	m := imp.resolveNodeMethod(node)
	if m == nil {
		imp.logger.Debug("no method for node", zap.String("signature", nodeSignature(node)))
		return nil
	}
	if m.HasBody() {
		imp.logger.Debug("method already has a body", zap.String("signature", m.Signature()))
		return nil
	}

	// Concrete and visible to the host, whatever the declaration said.
	m.Modifiers = m.Modifiers&^(program.Abstract|program.Native|program.Private|program.Protected) | program.Public

	body := imp.newMethodBuilder(m).build(node.Body)
	if err := m.SetBody(body); err != nil {
		imp.logger.Warn("failed to install body", zap.String("signature", m.Signature()), zap.Error(err))
		return nil
	}

	if imp.strategy.NativeActivityBootstrap && m.Class().Name == imp.names.NativeActivityClass {
		imp.bootstrapNativeActivity(m)
	}
	return m
}

// resolveNodeMethod finds the method a node describes, creating its class
// when unknown. Lifecycle hooks and native activity callbacks are declared
// on demand; any other unknown method is left unresolved.
func (imp *Importer) resolveNodeMethod(node *oracle.MethodNode) *program.Method {
	cls := imp.model.Class(node.Class)
	if cls == nil {
		cls = imp.model.MakeClass(node.Class)
		cls.Modifiers = program.Public | program.Static
		cls.SetApplication()
	}

	params := program.SplitParams(node.Params)
	if m := cls.MethodBySubSignature(program.SubSignature(node.Ret, node.Name, params)); m != nil {
		return m
	}

	var m *program.Method
	switch {
	case imp.isLifecycleHook(node.Name):
		m = program.NewMethod(node.Name, nil, ir.Void, program.Public|program.Static)
		if existing := cls.MethodBySubSignature(m.SubSignature()); existing != nil {
			return existing
		}
	case cls.Name == imp.names.NativeActivityClass:
		types := make([]ir.Type, len(params))
		for i, p := range params {
			types[i] = typeOrObject(p)
		}
		m = program.NewMethod(node.Name, types, typeOrObject(node.Ret), program.Public|program.Static)
	default:
		return nil
	}

	if err := cls.AddMethod(m); err != nil {
		imp.logger.Warn("failed to declare method", zap.String("signature", nodeSignature(node)), zap.Error(err))
		return nil
	}
	return m
}

// bootstrapNativeActivity makes the callback reachable from the dummy main
// method: an instance of the activity class is allocated and the callback
// dispatched on it, just before the entry method returns.
func (imp *Importer) bootstrapNativeActivity(callback *program.Method) {
	main := imp.model.GrabMethod(imp.names.DummyMainMethod)
	if main == nil || !main.HasBody() {
		imp.logger.Warn("dummy main method unavailable, skipping native activity bootstrap",
			zap.String("dummy_main", imp.names.DummyMainMethod),
			zap.String("callback", callback.Signature()))
		return
	}

	body := main.Body()
	activity := body.NewLocal(callback.Class().Type())
	alloc := &ir.AssignStmt{Left: activity, Right: &ir.NewExpr{Class: callback.Class().Type()}}
	call := &ir.InvokeStmt{Expr: &ir.VirtualInvokeExpr{Base: activity, Ref: callback.Ref()}}
	body.InsertBeforeLast(alloc, call)

	imp.queueEdge(main, call, callback, callgraph.Virtual)
	imp.logger.Debug("bootstrapped native activity callback", zap.String("callback", callback.Signature()))
}

func nodeSignature(node *oracle.MethodNode) string {
	return "<" + node.Class + ": " + program.SubSignature(node.Ret, node.Name, program.SplitParams(node.Params)) + ">"
}
