package nativecg

import (
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/oracle"
	"github.com/mvp-joe/dryjin/internal/program"
	"go.uber.org/zap"
)

const (
	// newArraySize is the element count of every synthesized array allocation.
	newArraySize = 16

	thisToken = "this"
)

// methodBuilder resolves the statements of one node into a body. The local
// registry holds locals produced by write-context resolution; a local-read
// descriptor addresses it by position.
type methodBuilder struct {
	imp    *Importer
	method *program.Method
	body   *ir.Body
	locals []*ir.Local

	// callees maps each invoke expression built for this body to the method
	// it targets, so edges can carry the resolved method.
	callees map[ir.InvokeExpr]*program.Method
}

func (imp *Importer) newMethodBuilder(m *program.Method) *methodBuilder {
	return &methodBuilder{
		imp:     imp,
		method:  m,
		body:    ir.NewBody(m.Signature()),
		callees: make(map[ir.InvokeExpr]*program.Method),
	}
}

func (b *methodBuilder) logger() *zap.Logger {
	return b.imp.logger
}

// build resolves every statement in order and returns the finished body.
func (b *methodBuilder) build(stmts []oracle.Stmt) *ir.Body {
	for i := range stmts {
		if s := b.resolveStmt(&stmts[i]); s != nil {
			b.body.Add(s)
		}
	}
	return b.body
}

// resolveStmt returns the IR statement for desc, or nil when a dummy
// statement has nothing to assign.
func (b *methodBuilder) resolveStmt(desc *oracle.Stmt) ir.Stmt {
	if desc.Err != nil {
		b.logger().Debug("statement degraded to nop",
			zap.String("method", b.method.Signature()),
			zap.Error(desc.Err))
		return &ir.NopStmt{}
	}

	switch desc.Kind {
	case oracle.StmtIdentity:
		return b.resolveIdentity(desc)
	case oracle.StmtAssign:
		return b.resolveAssign(desc)
	case oracle.StmtDummy:
		return b.resolveDummy(desc)
	case oracle.StmtInvoke:
		return b.resolveInvokeStmt(desc)
	case oracle.StmtReturn:
		op := b.resolveValue(desc.Local)
		if op == nil {
			b.degraded(desc, "unresolvable return operand")
			return &ir.NopStmt{}
		}
		return &ir.ReturnStmt{Op: op}
	case oracle.StmtReturnVoid:
		return &ir.ReturnVoidStmt{}
	}
	return &ir.NopStmt{}
}

func (b *methodBuilder) resolveIdentity(desc *oracle.Stmt) ir.Stmt {
	left := b.allocLocal(desc.Local)
	right, ok := b.resolveValue(desc.ParamRef).(ir.Ref)
	if !ok {
		b.degraded(desc, "identity right side is not a reference")
		return &ir.NopStmt{}
	}
	return &ir.IdentityStmt{Left: left, Right: right}
}

func (b *methodBuilder) resolveAssign(desc *oracle.Stmt) ir.Stmt {
	right := b.resolveValue(desc.RightOp)
	left := b.resolveLeftValue(desc.LeftOp)
	if right == nil {
		b.degraded(desc, "unresolvable right operand")
		return &ir.NopStmt{}
	}

	stmt := &ir.AssignStmt{Left: left, Right: right}
	if inv, ok := right.(ir.InvokeExpr); ok {
		b.queueInvokeEdge(stmt, inv, KindByCalleeStaticness)
	}
	return stmt
}

// resolveDummy is assign without a fallback: nothing is emitted when the
// right side does not resolve. The new left local becomes the dummy local.
func (b *methodBuilder) resolveDummy(desc *oracle.Stmt) ir.Stmt {
	right := b.resolveValue(desc.RightOp)
	if right == nil {
		return nil
	}

	left := b.resolveLeftValue(desc.LeftOp)
	stmt := &ir.AssignStmt{Left: left, Right: right}
	if inv, ok := right.(ir.InvokeExpr); ok {
		b.queueInvokeEdge(stmt, inv, b.imp.strategy.DummyEdgeKind)
	}
	if local, ok := left.(*ir.Local); ok {
		b.imp.state.dummyLocal = local
	}
	return stmt
}

func (b *methodBuilder) resolveInvokeStmt(desc *oracle.Stmt) ir.Stmt {
	inv := b.resolveInvoke(&desc.Invoke)
	if inv == nil {
		b.degraded(desc, "unresolvable invoke")
		return &ir.NopStmt{}
	}
	stmt := &ir.InvokeStmt{Expr: inv}
	b.queueInvokeEdge(stmt, inv, KindByCalleeStaticness)
	return stmt
}

func (b *methodBuilder) queueInvokeEdge(stmt ir.Stmt, inv ir.InvokeExpr, policy EdgeKindPolicy) {
	callee := b.callees[inv]
	if callee == nil {
		return
	}
	if policy == nil {
		policy = KindByCalleeStaticness
	}
	b.imp.queueEdge(b.method, stmt, callee, policy(callee))
}

func (b *methodBuilder) degraded(desc *oracle.Stmt, reason string) {
	b.logger().Debug("statement degraded to nop",
		zap.String("method", b.method.Signature()),
		zap.String("stmt_type", string(desc.Kind)),
		zap.String("reason", reason))
}

// Values

// resolveValue resolves a descriptor in read context. It returns nil when
// the value cannot be reconstructed.
func (b *methodBuilder) resolveValue(desc *oracle.Value) ir.Value {
	if desc == nil {
		return nil
	}

	switch desc.Kind {
	case oracle.ValueLocal:
		return b.readLocal(desc)
	case oracle.ValueConst:
		return resolveConstant(desc)
	case oracle.ValueBoolean:
		if v, ok := desc.Bool(); ok {
			if v {
				return ir.IntConstant{Value: 1}
			}
			return ir.IntConstant{Value: 0}
		}
		return nil
	case oracle.ValueByte, oracle.ValueChar, oracle.ValueShort, oracle.ValueInt,
		oracle.ValueLong, oracle.ValueFloat, oracle.ValueDouble:
		return numericConstant(desc)
	case oracle.ValueString:
		if s, ok := desc.Str(); ok {
			return ir.StringConstant{Value: s}
		}
		return nil
	case oracle.ValueNew:
		return newObject(desc.TypeName)
	case oracle.ValueInvoke:
		if inv := b.resolveInvoke(&desc.Invoke); inv != nil {
			return inv
		}
		return nil
	}

	if ref := b.resolveRef(desc); ref != nil {
		return ref
	}
	return nil
}

// resolveLeftValue resolves an assignment target. Field references stay
// field references; everything else allocates a fresh registered local.
func (b *methodBuilder) resolveLeftValue(desc *oracle.Value) ir.Value {
	if desc != nil && desc.Kind == oracle.ValueFieldRef {
		if ref := b.resolveRef(desc); ref != nil {
			return ref
		}
	}
	return b.allocLocal(desc)
}

// allocLocal generates a local typed from the descriptor and registers it
// at the next free index.
func (b *methodBuilder) allocLocal(desc *oracle.Value) *ir.Local {
	typeName := ""
	if desc != nil {
		typeName = desc.TypeName
	}
	local := b.body.NewLocal(b.localType(typeName))
	b.locals = append(b.locals, local)
	return local
}

// readLocal returns the registered local at the descriptor's index. Unknown
// indices synthesize an unregistered local of the declared type.
func (b *methodBuilder) readLocal(desc *oracle.Value) ir.Value {
	if desc.Index != nil {
		if local := b.local(*desc.Index); local != nil {
			return local
		}
	}
	return b.body.NewLocal(b.localType(desc.TypeName))
}

// local returns the registered local at index, or nil.
func (b *methodBuilder) local(index int64) *ir.Local {
	if index < 0 || index >= int64(len(b.locals)) {
		return nil
	}
	return b.locals[index]
}

func (b *methodBuilder) localType(token string) ir.Type {
	if program.NormalizeToken(token) == thisToken {
		return b.method.Class().Type()
	}
	return typeOrObject(token)
}

// typeOrObject parses a type token, falling back to java.lang.Object.
func typeOrObject(token string) ir.Type {
	t, err := program.ParseType(token)
	if err != nil {
		return ir.ObjectType
	}
	return t
}

func resolveConstant(desc *oracle.Value) ir.Value {
	if typeOrObject(desc.TypeName) != ir.StringType {
		return nil
	}
	if s, ok := desc.Str(); ok {
		return ir.StringConstant{Value: s}
	}
	return nil
}

// numericConstant converts the 64-bit literal to the descriptor's kind.
func numericConstant(desc *oracle.Value) ir.Value {
	n, ok := desc.Int()
	if !ok {
		return nil
	}
	switch desc.Kind {
	case oracle.ValueLong:
		return ir.LongConstant{Value: n}
	case oracle.ValueFloat:
		return ir.FloatConstant{Value: float32(n)}
	case oracle.ValueDouble:
		return ir.DoubleConstant{Value: float64(n)}
	}
	return ir.IntConstant{Value: int32(n)}
}

// newObject builds an allocation for the named type. Strings become the
// empty literal and arrays get a fixed size.
func newObject(token string) ir.Value {
	t := typeOrObject(token)
	switch tt := t.(type) {
	case ir.RefType:
		if tt == ir.StringType {
			return ir.StringConstant{Value: ""}
		}
		return &ir.NewExpr{Class: tt}
	case ir.ArrayType:
		return &ir.NewArrayExpr{Elem: tt.Elem, Size: ir.IntConstant{Value: newArraySize}}
	}
	return &ir.NewExpr{Class: ir.ObjectType}
}

// References

func (b *methodBuilder) resolveRef(desc *oracle.Value) ir.Ref {
	switch desc.Kind {
	case oracle.ValueThisRef:
		return &ir.ThisRef{Typ: b.method.Class().Type()}

	case oracle.ValueParamRef:
		index := -1
		if desc.Index != nil {
			index = int(*desc.Index)
		}
		// -1 means "the parameter after the last one seen", across the
		// whole build. The computed index becomes the new reference point.
		if index == -1 {
			index = b.imp.state.dummyIndex + 1
		}
		b.imp.state.dummyIndex = index
		return &ir.ParameterRef{Typ: typeOrObject(desc.TypeName), Index: index}

	case oracle.ValueFieldRef:
		if desc.Class == "" || desc.Name == "" {
			return nil
		}
		cls := b.imp.model.MakeClass(desc.Class)
		field := cls.FieldOrCreate(desc.Name, typeOrObject(desc.TypeName), desc.IsStatic)
		if desc.IsStatic {
			return &ir.StaticFieldRef{Field: field.Ref()}
		}
		if desc.Base == nil {
			return nil
		}
		base := b.local(*desc.Base)
		if base == nil {
			return nil
		}
		return &ir.InstanceFieldRef{Base: base, Field: field.Ref()}
	}
	return nil
}

// Invokes

// resolveInvoke builds a call to the descriptor's callee, creating a phantom
// callee when the signature is unknown. It returns nil when the signature
// cannot be parsed or an instance call has no receiver.
func (b *methodBuilder) resolveInvoke(desc *oracle.Invoke) ir.InvokeExpr {
	callee := b.imp.model.GrabMethod(desc.Callee)
	if callee == nil {
		callee = b.imp.makePhantomMethod(desc.Callee, desc.IsStatic)
		if callee == nil {
			return nil
		}
	}

	args := make([]ir.Value, 0, len(desc.Args))
	for _, arg := range desc.Args {
		args = append(args, b.resolveArg(arg))
	}

	var inv ir.InvokeExpr
	if callee.IsStatic() {
		inv = &ir.StaticInvokeExpr{Ref: callee.Ref(), Args: args}
	} else {
		if desc.Base == nil {
			return nil
		}
		base := b.local(*desc.Base)
		if base == nil {
			return nil
		}
		inv = &ir.VirtualInvokeExpr{Base: base, Ref: callee.Ref(), Args: args}
	}

	b.callees[inv] = callee
	return inv
}

// resolveArg maps a JSON null to the dummy local and an index to the
// registered local. Anything else becomes the null constant.
func (b *methodBuilder) resolveArg(arg *int64) ir.Value {
	if arg == nil {
		if b.imp.state.dummyLocal != nil {
			return b.imp.state.dummyLocal
		}
		return ir.NullConstant{}
	}
	if local := b.local(*arg); local != nil {
		return local
	}
	return ir.NullConstant{}
}

// makePhantomMethod declares a phantom method for an unknown callee
// signature. A parameter typed as the dummy native class stands for a
// native pointer and becomes int.
func (imp *Importer) makePhantomMethod(signature string, static bool) *program.Method {
	sig, err := imp.model.ParseSignature(signature)
	if err != nil {
		imp.logger.Debug("unparseable callee signature", zap.String("signature", signature), zap.Error(err))
		return nil
	}

	params := make([]ir.Type, 0, len(sig.Params))
	for _, p := range sig.Params {
		if p == imp.names.DummyNativeClass {
			params = append(params, ir.Int)
			continue
		}
		params = append(params, typeOrObject(p))
	}

	mods := program.Public
	if static {
		mods |= program.Static
	}
	m := program.NewMethod(sig.Name, params, typeOrObject(sig.Return), mods)
	m.Phantom = true

	cls := imp.model.MakeClass(sig.Class)
	if existing := cls.MethodBySubSignature(m.SubSignature()); existing != nil {
		return existing
	}
	if err := cls.AddMethod(m); err != nil {
		imp.logger.Debug("failed to declare phantom callee", zap.String("signature", signature), zap.Error(err))
		return nil
	}

	imp.logger.Debug("created phantom callee", zap.String("signature", m.Signature()))
	return m
}
