package watcher

import "context"

// InputWatcher monitors importer input files for changes with debouncing.
type InputWatcher interface {
	// Start begins watching, calling callback with the debounced set of changed files.
	Start(ctx context.Context, callback func(files []string)) error

	// MarkSeen records the current content of files as already seen.
	MarkSeen(files ...string)

	// Stop stops the watcher and cleans up resources.
	Stop() error
}
