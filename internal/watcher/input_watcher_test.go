package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for InputWatcher:
// - NewInputWatcher fails for a missing parent directory or no files
// - Writing a watched file fires the callback after the debounce
// - Rapid writes to both inputs are coalesced into one sorted batch
// - Changes to unwatched siblings are ignored
// - Writes that leave the content unchanged do not fire
// - Content recorded with MarkSeen does not fire again
// - Stop is idempotent and works without Start

const testDebounce = 50 * time.Millisecond

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func startWatcher(t *testing.T, files ...string) (InputWatcher, chan []string) {
	t.Helper()
	w, err := NewInputWatcher(files, WithDebounce(testDebounce))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	batches := make(chan []string, 10)
	require.NoError(t, w.Start(context.Background(), func(files []string) {
		batches <- files
	}))
	return w, batches
}

func waitBatch(t *testing.T, batches chan []string) []string {
	t.Helper()
	select {
	case files := <-batches:
		return files
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func TestNewInputWatcher_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewInputWatcher([]string{filepath.Join(t.TempDir(), "missing", "cg.json")})
	assert.Error(t, err)

	_, err = NewInputWatcher([]string{"", ""})
	assert.Error(t, err)
}

func TestInputWatcher_WriteFires(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "callgraph.json")
	writeFile(t, jsonPath, "{}")

	_, batches := startWatcher(t, jsonPath)
	writeFile(t, jsonPath, `{"nodes": []}`)

	assert.Equal(t, []string{jsonPath}, waitBatch(t, batches))
}

func TestInputWatcher_CoalescesAndIgnoresSiblings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "callgraph.json")
	sinkPath := filepath.Join(dir, "SourcesAndSinks.txt")
	writeFile(t, jsonPath, "{}")
	writeFile(t, sinkPath, "")

	_, batches := startWatcher(t, jsonPath, "", sinkPath)

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	for i := 0; i < 3; i++ {
		writeFile(t, jsonPath, `{"nodes": []}`)
		writeFile(t, sinkPath, "a")
	}

	files := waitBatch(t, batches)
	assert.Equal(t, []string{sinkPath, jsonPath}, files)

	select {
	case extra := <-batches:
		t.Fatalf("unexpected second batch: %v", extra)
	case <-time.After(4 * testDebounce):
	}
}

func TestInputWatcher_UnchangedContentIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "callgraph.json")
	writeFile(t, jsonPath, "{}")

	_, batches := startWatcher(t, jsonPath)
	writeFile(t, jsonPath, "{}")

	select {
	case extra := <-batches:
		t.Fatalf("unexpected batch for identical content: %v", extra)
	case <-time.After(4 * testDebounce):
	}

	writeFile(t, jsonPath, `{"nodes": []}`)
	assert.Equal(t, []string{jsonPath}, waitBatch(t, batches))
}

func TestInputWatcher_MarkSeenSuppressesOwnWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "callgraph.json")
	sinkPath := filepath.Join(dir, "SourcesAndSinks.txt")
	writeFile(t, jsonPath, "{}")
	writeFile(t, sinkPath, "")

	w, err := NewInputWatcher([]string{jsonPath, sinkPath}, WithDebounce(testDebounce))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	batches := make(chan []string, 10)
	require.NoError(t, w.Start(context.Background(), func(files []string) {
		// The callback rewrites one of its own inputs, the way an import
		// appends to the source/sink file.
		_ = os.WriteFile(sinkPath, []byte("<A: void f()> -> _SINK_\n"), 0644)
		w.MarkSeen(sinkPath)
		batches <- files
	}))

	writeFile(t, jsonPath, `{"nodes": []}`)
	assert.Equal(t, []string{jsonPath}, waitBatch(t, batches))

	select {
	case extra := <-batches:
		t.Fatalf("unexpected batch for the callback's own write: %v", extra)
	case <-time.After(4 * testDebounce):
	}
}

func TestInputWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "callgraph.json")

	w, err := NewInputWatcher([]string{path})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())

	started, _ := startWatcher(t, path)
	assert.NoError(t, started.Stop())
	assert.NoError(t, started.Stop())
}
