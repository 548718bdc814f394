package program

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadSignature indicates text that is not of the form "<Class: ret name(params)>".
var ErrBadSignature = errors.New("malformed method signature")

// MethodSignature is a parsed method signature. Type tokens are normalized
// but not resolved.
type MethodSignature struct {
	Class  string
	Return string
	Name   string
	Params []string
}

// SubSignature renders the canonical "ret name(p1,p2)" lookup key.
func (s MethodSignature) SubSignature() string {
	return SubSignature(s.Return, s.Name, s.Params)
}

// SubSignature builds the canonical lookup key from declared tokens.
func SubSignature(ret, name string, params []string) string {
	rendered := make([]string, len(params))
	for i, p := range params {
		rendered[i] = typeString(p)
	}
	return typeString(ret) + " " + name + "(" + strings.Join(rendered, ",") + ")"
}

// SplitParams splits a parenthesized parameter list "(t1, t2)" into
// normalized tokens. Empty entries are dropped.
func SplitParams(list string) []string {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")

	var params []string
	for _, p := range strings.Split(list, ",") {
		if p = NormalizeToken(p); p != "" {
			params = append(params, p)
		}
	}
	return params
}

// ParseSignature parses "<Class: ret name(p1,p2)>".
func ParseSignature(sig string) (MethodSignature, error) {
	s := strings.TrimSpace(sig)
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return MethodSignature{}, fmt.Errorf("%w: %q", ErrBadSignature, sig)
	}
	s = s[1 : len(s)-1]

	colon := strings.Index(s, ":")
	if colon <= 0 {
		return MethodSignature{}, fmt.Errorf("%w: missing class in %q", ErrBadSignature, sig)
	}
	className := strings.TrimSpace(s[:colon])
	rest := strings.TrimSpace(s[colon+1:])

	open := strings.Index(rest, "(")
	closing := strings.LastIndex(rest, ")")
	if open < 0 || closing < open {
		return MethodSignature{}, fmt.Errorf("%w: missing parameter list in %q", ErrBadSignature, sig)
	}

	head := strings.Fields(rest[:open])
	if len(head) != 2 {
		return MethodSignature{}, fmt.Errorf("%w: expected return type and name in %q", ErrBadSignature, sig)
	}

	return MethodSignature{
		Class:  className,
		Return: NormalizeToken(head[0]),
		Name:   head[1],
		Params: SplitParams(rest[open : closing+1]),
	}, nil
}
