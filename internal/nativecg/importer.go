package nativecg

import (
	"errors"
	"fmt"
	"time"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/dryjin/internal/callgraph"
	"github.com/mvp-joe/dryjin/internal/ir"
	"github.com/mvp-joe/dryjin/internal/oracle"
	"github.com/mvp-joe/dryjin/internal/program"
	"github.com/mvp-joe/dryjin/internal/sourcesink"
	"go.uber.org/zap"
)

var (
	// ErrMethodNotFound indicates a signature that names no known method
	ErrMethodNotFound = errors.New("method not found")

	// ErrClassNotFound indicates a class name unknown to the program model
	ErrClassNotFound = errors.New("class not found")

	// ErrNoBody indicates a method without an installed body
	ErrNoBody = errors.New("method has no body")

	// ErrStmtNotFound indicates a statement index past the end of a body
	ErrStmtNotFound = errors.New("statement not found")
)

// Names are the well-known class and method names the importer keys on.
type Names struct {
	DummyNativeClass    string   // Placeholder class holding native entry points
	NativeActivityClass string   // Framework class whose callbacks get bootstrapped
	DummyMainMethod     string   // Signature of the host's synthetic entry method
	LifecycleHooks      []string // Native hooks forced into existence as void static ()
	CallbackHooks       []string // Async callbacks whose call sites are shifted by one
}

// DefaultNames returns the names used by the oracle and the host analysis.
func DefaultNames() Names {
	return Names{
		DummyNativeClass:    "DummyNative",
		NativeActivityClass: "android.app.NativeActivity",
		DummyMainMethod:     "<dummyMainClass: void dummyMainMethod(java.lang.String[])>",
		LifecycleHooks:      []string{"JNI_OnLoad"},
		CallbackHooks: []string{
			"onPreExecute",
			"doInBackground",
			"onProgressUpdate",
			"onCancelled",
			"onPostExecute",
		},
	}
}

// ProgressReporter reports progress while method bodies are synthesized.
type ProgressReporter interface {
	OnBuildStart(totalNodes int)
	OnNodeProcessed(processed, total int, signature string)
	OnBuildComplete(built, skipped int, duration time.Duration)
}

// EdgeAdder is the part of a host call graph the merge needs.
type EdgeAdder interface {
	AddEdge(e callgraph.Edge) bool
}

// IccLink is an inter-component link out of a synthesized body.
type IccLink struct {
	FromMethod *program.Method
	FromStmt   ir.Stmt
	ToClass    *program.Class
	ExitKind   string
}

// ExitKindActivity is the only exit kind the oracle reports.
const ExitKindActivity = "Activity"

// Stats summarizes one load.
type Stats struct {
	NodesBuilt      int
	NodesSkipped    int
	EdgesQueued     int
	EdgesDiscarded  int
	SourcesAdded    int
	SinksAdded      int
	IccLinks        int
	IccLinksDropped int
}

// Importer turns an oracle document into synthesized bodies, pending call
// edges, source/sink lines and ICC links. It is single-threaded: the program
// model it mutates is shared with the host and not safe for concurrent use.
type Importer struct {
	model    program.Model
	names    Names
	strategy Strategy
	logger   *zap.Logger
	progress ProgressReporter
	ignore   []glob.Glob

	loaded   bool
	doc      *oracle.Document
	pending  []callgraph.Edge
	iccLinks []IccLink
	built    []*program.Method
	stats    Stats

	state buildState
}

// buildState is shared by every method body built during one load. The
// dummy local and dummy index carry over between statements and methods.
type buildState struct {
	dummyLocal *ir.Local
	dummyIndex int
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(imp *Importer) {
		imp.logger = logger
	}
}

// WithStrategy selects the importer strategy.
func WithStrategy(s Strategy) Option {
	return func(imp *Importer) {
		imp.strategy = s
	}
}

// WithNames overrides the well-known names.
func WithNames(n Names) Option {
	return func(imp *Importer) {
		imp.names = n
	}
}

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(imp *Importer) {
		imp.progress = progress
	}
}

// WithSinkIgnore suppresses sink lines for matching signatures.
func WithSinkIgnore(patterns []glob.Glob) Option {
	return func(imp *Importer) {
		imp.ignore = patterns
	}
}

// New creates an importer that resolves against model.
func New(model program.Model, opts ...Option) *Importer {
	imp := &Importer{
		model:    model,
		names:    DefaultNames(),
		strategy: Canonical(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Load reads the oracle document at jsonPath, synthesizes method bodies,
// resolves explicit edges, appends native sources/sinks to sinkPath and
// extracts ICC links. It runs once: later calls return nil without doing
// anything. Read and parse errors leave the model untouched.
func (imp *Importer) Load(jsonPath, sinkPath string) error {
	if imp.loaded {
		return nil
	}

	doc, err := oracle.Load(jsonPath)
	if err != nil {
		imp.logger.Error("failed to load oracle document", zap.String("file", jsonPath), zap.Error(err))
		return err
	}
	imp.doc = doc
	imp.logger.Info("loaded oracle document",
		zap.String("file", jsonPath),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)))

	imp.loadNodes()
	imp.loadEdges()
	imp.loadNativeSources(sinkPath)
	imp.loadIccLinks()

	imp.loaded = true
	imp.logger.Info("import complete",
		zap.Int("nodes_built", imp.stats.NodesBuilt),
		zap.Int("edges_queued", imp.stats.EdgesQueued),
		zap.Int("icc_links", imp.stats.IccLinks))
	return nil
}

// Loaded reports whether a document has been imported.
func (imp *Importer) Loaded() bool { return imp.loaded }

// MergeInto drains the pending edges into cg and returns how many cg
// accepted. The queue and the parsed edge array are cleared, so each loaded
// document is merged exactly once.
func (imp *Importer) MergeInto(cg EdgeAdder) int {
	added := 0
	for _, e := range imp.pending {
		if cg.AddEdge(e) {
			added++
		}
	}
	imp.pending = nil
	if imp.doc != nil {
		imp.doc.Edges = nil
	}

	imp.logger.Info("merged native call edges", zap.Int("added", added))
	return added
}

// Pending returns the edges waiting to be merged.
func (imp *Importer) Pending() []callgraph.Edge {
	out := make([]callgraph.Edge, len(imp.pending))
	copy(out, imp.pending)
	return out
}

// IccLinks returns the resolved inter-component links.
func (imp *Importer) IccLinks() []IccLink {
	out := make([]IccLink, len(imp.iccLinks))
	copy(out, imp.iccLinks)
	return out
}

// BuiltMethods returns the methods whose bodies were synthesized, in
// document order.
func (imp *Importer) BuiltMethods() []*program.Method {
	out := make([]*program.Method, len(imp.built))
	copy(out, imp.built)
	return out
}

// Stats returns counters for the last load.
func (imp *Importer) Stats() Stats { return imp.stats }

// Strategy returns the active strategy.
func (imp *Importer) Strategy() Strategy { return imp.strategy }

// queueEdge records a call edge for the next merge.
func (imp *Importer) queueEdge(src *program.Method, stmt ir.Stmt, tgt *program.Method, kind callgraph.Kind) {
	imp.pending = append(imp.pending, callgraph.Edge{Src: src, Stmt: stmt, Tgt: tgt, Kind: kind})
	imp.stats.EdgesQueued++
}

func (imp *Importer) loadNativeSources(sinkPath string) {
	if sinkPath == "" {
		imp.logger.Debug("no source/sink file configured, skipping propagation")
		return
	}

	var natives []string
	if cls := imp.model.Class(imp.names.DummyNativeClass); cls != nil {
		for _, m := range cls.Methods() {
			natives = append(natives, m.Signature())
		}
	}
	if len(imp.doc.NativeSources) == 0 && len(natives) == 0 {
		return
	}

	res := sourcesink.New(sinkPath,
		sourcesink.WithLogger(imp.logger),
		sourcesink.WithSinkIgnore(imp.ignore),
	).Propagate(imp.doc.NativeSources, natives)

	imp.stats.SourcesAdded = res.SourcesAdded
	imp.stats.SinksAdded = res.SinksAdded
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (imp *Importer) isLifecycleHook(name string) bool {
	return contains(imp.names.LifecycleHooks, name)
}

func (imp *Importer) isCallbackHook(name string) bool {
	return contains(imp.names.CallbackHooks, name)
}

// notFound wraps a lookup error with the offending name.
func notFound(err error, what, name string) error {
	return fmt.Errorf("%w: %s %s", err, what, name)
}
