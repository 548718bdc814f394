package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 500 * time.Millisecond

// inputWatcher implements InputWatcher.
//
// Parent directories are watched rather than the files themselves, so
// editors and tools that replace a file by rename are still seen. A file
// only counts as changed when its content checksum differs from the last
// one seen.
type inputWatcher struct {
	watcher       *fsnotify.Watcher
	files         map[string]bool      // Absolute paths of watched files
	debounceTime  time.Duration        // Quiet period before firing callback
	logger        *zap.Logger
	callback      func(files []string) // Callback to invoke with changed files
	ctx           context.Context
	cancel        context.CancelFunc
	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	checksums     map[string]string // Last seen content checksum per file
	checksumMu    sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{} // Signals watch goroutine has finished
}

// Option configures an InputWatcher.
type Option func(*inputWatcher)

// WithDebounce sets the quiet period before a batch fires.
func WithDebounce(d time.Duration) Option {
	return func(w *inputWatcher) { w.debounceTime = d }
}

// WithLogger sets the logger used for watcher errors.
func WithLogger(l *zap.Logger) Option {
	return func(w *inputWatcher) { w.logger = l }
}

// NewInputWatcher watches the given files. Empty paths are ignored; the
// parent directory of every other path must exist.
func NewInputWatcher(files []string, opts ...Option) (InputWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &inputWatcher{
		watcher:      fsw,
		files:        make(map[string]bool),
		debounceTime: DefaultDebounce,
		logger:       zap.NewNop(),
		accumulated:  make(map[string]bool),
		checksums:    make(map[string]string),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(w.files) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no files to watch")
	}

	for file := range w.files {
		w.checksums[file] = w.checksum(file)
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Start begins watching for file changes.
func (w *inputWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	w.callback = callback
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.watch()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *inputWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.watcher.Close()
	})
	return err
}

// MarkSeen records the current content of files as seen, so writes made
// by the caller itself do not fire another batch.
func (w *inputWatcher) MarkSeen(files ...string) {
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil || !w.files[abs] {
			continue
		}
		sum := w.checksum(abs)
		w.checksumMu.Lock()
		w.checksums[abs] = sum
		w.checksumMu.Unlock()
	}
}

func (w *inputWatcher) watch() {
	defer close(w.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.accumulatedMu.Lock()
			w.accumulated[filepath.Clean(event.Name)] = true
			w.accumulatedMu.Unlock()

			w.resetDebounceTimer(fireCh)

		case <-fireCh:
			w.fire()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("input watcher error", zap.Error(err))
		}
	}
}

// fire drains the accumulated changes into one callback. Events that
// arrive while the callback runs form the next batch.
func (w *inputWatcher) fire() {
	w.accumulatedMu.Lock()
	if len(w.accumulated) == 0 {
		w.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(w.accumulated))
	for file := range w.accumulated {
		files = append(files, file)
	}
	w.accumulated = make(map[string]bool)
	w.accumulatedMu.Unlock()

	files = w.contentChanged(files)
	if len(files) == 0 {
		return
	}

	slices.Sort(files)
	if w.callback != nil {
		w.callback(files)
	}
}

// contentChanged keeps the files whose checksum moved since last seen and
// records the new checksums.
func (w *inputWatcher) contentChanged(files []string) []string {
	w.checksumMu.Lock()
	defer w.checksumMu.Unlock()

	changed := files[:0]
	for _, f := range files {
		sum := w.checksum(f)
		if sum == w.checksums[f] {
			w.logger.Debug("input content unchanged", zap.String("file", f))
			continue
		}
		w.checksums[f] = sum
		changed = append(changed, f)
	}
	return changed
}

// checksum returns the SHA-256 of the file's content, or "" when the file
// does not exist.
func (w *inputWatcher) checksum(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("failed to checksum input", zap.String("file", path), zap.Error(err))
		}
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (w *inputWatcher) resetDebounceTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *inputWatcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

func (w *inputWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}
