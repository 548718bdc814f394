package callgraph

import (
	"errors"
	"fmt"
)

// ErrUnknownKind indicates a call kind string outside the supported set.
var ErrUnknownKind = errors.New("unknown call kind")

// Kind classifies how a call edge dispatches.
type Kind int

const (
	KindInvalid Kind = iota
	Clinit
	Virtual
	Special
	Interface
	Static
)

var kindNames = map[Kind]string{
	Clinit:    "CLINIT",
	Virtual:   "VIRTUAL",
	Special:   "SPECIAL",
	Interface: "INTERFACE",
	Static:    "STATIC",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "INVALID"
}

// ParseKind maps the oracle's kind string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "CLINIT":
		return Clinit, nil
	case "VIRTUAL":
		return Virtual, nil
	case "SPECIAL":
		return Special, nil
	case "INTERFACE":
		return Interface, nil
	case "STATIC":
		return Static, nil
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
