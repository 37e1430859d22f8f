package watch

import "errors"

var (
	// ErrWatcherClosed indicates an operation on a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrPathNotExist indicates the watched file does not exist.
	ErrPathNotExist = errors.New("path does not exist")

	// ErrNotFile indicates the watched path is a directory.
	ErrNotFile = errors.New("path is a directory")

	// ErrNilTarget indicates a watcher without an update target.
	ErrNilTarget = errors.New("nil update target")
)
