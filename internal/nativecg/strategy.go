package nativecg

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/program"
)

// ErrUnknownStrategy indicates a strategy name with no preset.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy names.
const (
	StrategyCanonical = "canonical"
	StrategyLegacy    = "legacy"
)

// EdgeKindPolicy chooses the call kind recorded for a call found in a body.
type EdgeKindPolicy func(callee *program.Method) callgraph.Kind

// KindByCalleeStaticness records STATIC for static callees and VIRTUAL otherwise.
func KindByCalleeStaticness(callee *program.Method) callgraph.Kind {
	if callee.IsStatic() {
		return callgraph.Static
	}
	return callgraph.Virtual
}

// KindAlwaysStatic records STATIC regardless of the callee.
func KindAlwaysStatic(*program.Method) callgraph.Kind {
	return callgraph.Static
}

// RetryPolicy picks the invoke index for the second lookup of an edge whose
// target is a callback hook.
type RetryPolicy int

const (
	// RetrySameIndex repeats the lookup at the shifted index.
	RetrySameIndex RetryPolicy = iota

	// RetryOriginalIndex falls back to the index the oracle reported.
	RetryOriginalIndex
)

func (p RetryPolicy) retryIndex(original, shifted int64) int64 {
	if p == RetryOriginalIndex {
		return original
	}
	return shifted
}

func (p RetryPolicy) String() string {
	if p == RetryOriginalIndex {
		return "original-index"
	}
	return "same-index"
}

// Strategy bundles the rules that differed between importer generations.
type Strategy struct {
	Name string

	// DummyEdgeKind classifies calls on the right of dummy statements.
	// Assign and invoke statements always use KindByCalleeStaticness.
	DummyEdgeKind EdgeKindPolicy

	// CallbackRetry controls the second lookup for callback hook targets.
	CallbackRetry RetryPolicy

	// NativeActivityBootstrap injects a call to native-activity callbacks
	// into the dummy main method.
	NativeActivityBootstrap bool

	// ExtractIccLinks resolves icc_links records.
	ExtractIccLinks bool
}

// Canonical returns the default strategy.
func Canonical() Strategy {
	return Strategy{
		Name:                    StrategyCanonical,
		DummyEdgeKind:           KindByCalleeStaticness,
		CallbackRetry:           RetrySameIndex,
		NativeActivityBootstrap: true,
		ExtractIccLinks:         true,
	}
}

// Legacy returns the strategy of the first importer generation: dummy calls
// are always STATIC, and there is no activity bootstrap or ICC support.
func Legacy() Strategy {
	return Strategy{
		Name:          StrategyLegacy,
		DummyEdgeKind: KindAlwaysStatic,
		CallbackRetry: RetrySameIndex,
	}
}

// StrategyByName returns the preset with the given name.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case StrategyCanonical, "":
		return Canonical(), nil
	case StrategyLegacy:
		return Legacy(), nil
	}
	return Strategy{}, fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnknownStrategy, name, StrategyCanonical, StrategyLegacy)
}
