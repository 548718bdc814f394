package ir

// Type is the static type of an IR value.
type Type interface {
	String() string
	isType()
}

// PrimType is a primitive (or pseudo-primitive) type such as int or void.
type PrimType string

const (
	Boolean PrimType = "boolean"
	Byte    PrimType = "byte"
	Char    PrimType = "char"
	Short   PrimType = "short"
	Int     PrimType = "int"
	Long    PrimType = "long"
	Float   PrimType = "float"
	Double  PrimType = "double"
	Void    PrimType = "void"
	Null    PrimType = "null_type" // Type of the null constant
)

func (p PrimType) String() string { return string(p) }
func (PrimType) isType()          {}

// RefType is a class type named by its fully qualified class name.
type RefType struct {
	ClassName string
}

func (r RefType) String() string { return r.ClassName }
func (RefType) isType()          {}

// ArrayType is an array of Elem. Multi-dimensional arrays nest.
type ArrayType struct {
	Elem Type
}

func (a ArrayType) String() string { return a.Elem.String() + "[]" }
func (ArrayType) isType()          {}

// Well-known reference types.
var (
	ObjectType = RefType{ClassName: "java.lang.Object"}
	StringType = RefType{ClassName: "java.lang.String"}
)

// localPrefix returns the Jimple-style name prefix for generated locals of type t.
func localPrefix(t Type) string {
	switch t {
	case Boolean:
		return "$z"
	case Byte:
		return "$b"
	case Char:
		return "$c"
	case Short:
		return "$s"
	case Int:
		return "$i"
	case Long:
		return "$l"
	case Float:
		return "$f"
	case Double:
		return "$d"
	case Null:
		return "$n"
	}
	return "$r"
}
