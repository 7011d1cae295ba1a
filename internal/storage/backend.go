// Package storage persists the koban document to a durable local backend.
//
// The document is always written whole: a reader either sees the previous
// version or the new one, never a partial write. Alongside the document each
// backend keeps a small signal value holding the timestamp of the last save,
// so passive observers can notice changes without decoding the document.
package storage

import "context"

// Backend is a durable key-value location holding the document and its
// signal value.
type Backend interface {
	// Read returns the raw document, or common.ErrNotFound when none has
	// been written yet.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the document atomically.
	Write(ctx context.Context, data []byte) error

	// ReadSignal returns the timestamp of the last save, or
	// common.ErrNotFound.
	ReadSignal(ctx context.Context) (int64, error)

	// WriteSignal records the timestamp of a save.
	WriteSignal(ctx context.Context, ts int64) error

	// Delete removes the document and its signal.
	Delete(ctx context.Context) error

	// WatchPath returns a filesystem path that changes on every save, for
	// notification-based observers. Empty when the backend has no watchable
	// path; observers fall back to polling ReadSignal.
	WatchPath() string

	Close() error
}
