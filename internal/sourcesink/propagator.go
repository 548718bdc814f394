package sourcesink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

const (
	sourceSuffix = " -> _SOURCE_"
	sinkSuffix   = " -> _SINK_"
)

// SourceLine renders the specification line declaring sig a source.
func SourceLine(sig string) string { return sig + sourceSuffix }

// SinkLine renders the specification line declaring sig a sink.
func SinkLine(sig string) string { return sig + sinkSuffix }

// Result counts the lines appended by one propagation.
type Result struct {
	SourcesAdded int
	SinksAdded   int
}

// Propagator appends native entry points to a source/sink specification
// file. Existing lines are only read for deduplication, never rewritten.
type Propagator struct {
	path   string
	logger *zap.Logger
	ignore []glob.Glob
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Propagator) {
		p.logger = logger
	}
}

// WithSinkIgnore suppresses sink lines for signatures matching any pattern.
func WithSinkIgnore(patterns []glob.Glob) Option {
	return func(p *Propagator) {
		p.ignore = patterns
	}
}

// New creates a propagator for the file at path.
func New(path string, opts ...Option) *Propagator {
	p := &Propagator{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CompileIgnore compiles sink ignore patterns. Patterns match whole
// signatures; '*' spans any characters.
func CompileIgnore(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid sink ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Propagate appends a source line for every signature in sources and a sink
// line for every native signature that is not also a source. Lines already
// present in the file are skipped. Write failures are logged, not returned.
func (p *Propagator) Propagate(sources, natives []string) Result {
	var res Result

	isSource := make(map[string]bool, len(sources))
	for _, sig := range sources {
		isSource[sig] = true
		if p.appendUnlessPresent(SourceLine(sig)) {
			res.SourcesAdded++
		}
	}

	for _, sig := range natives {
		if isSource[sig] || p.ignored(sig) {
			continue
		}
		if p.appendUnlessPresent(SinkLine(sig)) {
			res.SinksAdded++
		}
	}

	p.logger.Info("propagated native sources and sinks",
		zap.String("file", p.path),
		zap.Int("sources_added", res.SourcesAdded),
		zap.Int("sinks_added", res.SinksAdded))

	return res
}

func (p *Propagator) ignored(sig string) bool {
	for _, g := range p.ignore {
		if g.Match(sig) {
			return true
		}
	}
	return false
}

func (p *Propagator) appendUnlessPresent(line string) bool {
	if p.contains(line) {
		return false
	}
	if err := p.appendLine(line); err != nil {
		p.logger.Warn("failed to append specification line",
			zap.String("file", p.path),
			zap.String("line", line),
			zap.Error(err))
		return false
	}
	return true
}

// contains reports whether any line of the file contains text. An unreadable
// or missing file contains nothing.
func (p *Propagator) contains(text string) bool {
	f, err := os.Open(p.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.Debug("failed to read specification file", zap.String("file", p.path), zap.Error(err))
		}
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), text) {
			return true
		}
	}
	return false
}

// appendLine appends "\n"+line; each append is flushed independently.
func (p *Propagator) appendLine(line string) error {
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("\n" + line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
