package ir

// Stmt is a single IR statement. Statements are compared by identity, so
// every implementation is a pointer type.
type Stmt interface {
	String() string
	isStmt()
}

// IdentityStmt binds a local to this, a parameter, or a field on entry.
type IdentityStmt struct {
	Left  *Local
	Right Ref
}

func (s *IdentityStmt) String() string { return s.Left.String() + " := " + s.Right.String() }
func (*IdentityStmt) isStmt()          {}

// AssignStmt writes Right into Left (a local or a field reference).
type AssignStmt struct {
	Left  Value
	Right Value
}

func (s *AssignStmt) String() string { return s.Left.String() + " = " + s.Right.String() }
func (*AssignStmt) isStmt()          {}

// InvokeStmt is a call whose result is discarded.
type InvokeStmt struct {
	Expr InvokeExpr
}

func (s *InvokeStmt) String() string { return s.Expr.String() }
func (*InvokeStmt) isStmt()          {}

type ReturnStmt struct {
	Op Value
}

func (s *ReturnStmt) String() string { return "return " + s.Op.String() }
func (*ReturnStmt) isStmt()          {}

// ReturnVoidStmt and NopStmt carry a padding byte: pointers to distinct
// zero-size values may compare equal, which would break identity lookups.
type ReturnVoidStmt struct {
	_ byte
}

func (*ReturnVoidStmt) String() string { return "return" }
func (*ReturnVoidStmt) isStmt()        {}

// NopStmt stands in for anything that could not be reconstructed.
type NopStmt struct {
	_ byte
}

func (*NopStmt) String() string { return "nop" }
func (*NopStmt) isStmt()        {}

// InvokeOf returns the invoke expression carried by s, if any. Only invoke
// statements and assignments whose right side is a call carry one.
func InvokeOf(s Stmt) (InvokeExpr, bool) {
	switch st := s.(type) {
	case *InvokeStmt:
		return st.Expr, true
	case *AssignStmt:
		inv, ok := st.Right.(InvokeExpr)
		return inv, ok
	}
	return nil, false
}

// HasInvoke reports whether s is invoke-bearing.
func HasInvoke(s Stmt) bool {
	_, ok := InvokeOf(s)
	return ok
}
