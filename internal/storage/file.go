package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/koban-io/koban/internal/common"
)

const (
	stateFileName  = "state.json"
	signalFileName = "state.signal"
)

// FileBackend stores the document as a JSON file. Writes go through a
// temporary file and a rename, so a crash mid-write leaves the previous
// document intact.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir, creating the
// directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, common.NewValidationError("dir", "must not be empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Read returns the raw document.
func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.statePath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Write replaces the document atomically via temp file and rename.
func (b *FileBackend) Write(_ context.Context, data []byte) error {
	return b.writeAtomic(b.statePath(), data)
}

// ReadSignal returns the timestamp of the last save.
func (b *FileBackend) ReadSignal(_ context.Context) (int64, error) {
	data, err := os.ReadFile(b.signalPath())
	if errors.Is(err, fs.ErrNotExist) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read signal file: %w", err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed signal value: %w", err)
	}
	return ts, nil
}

// WriteSignal records the timestamp of a save.
func (b *FileBackend) WriteSignal(_ context.Context, ts int64) error {
	return b.writeAtomic(b.signalPath(), []byte(strconv.FormatInt(ts, 10)))
}

// Delete removes the document and its signal.
func (b *FileBackend) Delete(_ context.Context) error {
	for _, path := range []string{b.statePath(), b.signalPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// WatchPath returns the signal file path for fsnotify observers.
func (b *FileBackend) WatchPath() string {
	return b.signalPath()
}

// Close implements Backend. File handles are not held open.
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) statePath() string {
	return filepath.Join(b.dir, stateFileName)
}

func (b *FileBackend) signalPath() string {
	return filepath.Join(b.dir, signalFileName)
}

func (b *FileBackend) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
