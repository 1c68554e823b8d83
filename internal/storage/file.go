package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// stateFileExtension is the extension for state files.
	stateFileExtension = ".json"

	// stateFilePermissions is the permission mode for state files.
	stateFilePermissions = 0o600

	// stateDirPermissions is the permission mode for the state directory.
	stateDirPermissions = 0o700
)

// Compile-time interface check
var _ KV = (*File)(nil)

// File stores each key in its own file under a base directory.
// Writes are atomic: temp file, fsync, rename.
type File struct {
	basePath string
	mu       sync.RWMutex
}

// NewFile creates a file store rooted at basePath. The directory is created on first write.
func NewFile(basePath string) *File {
	return &File{basePath: basePath}
}

// Get reads the file for key.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	//nolint:gosec // G304: Path constructed from validated key under basePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	return data, nil
}

// Set writes value atomically.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.basePath, stateDirPermissions); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return writeAtomic(path, value, stateFilePermissions)
}

// Delete removes the file for key.
func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// path maps a key to a file name. ':' is not portable in file names.
func (f *File) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	name := strings.ReplaceAll(key, ":", "_") + stateFileExtension
	if strings.HasPrefix(name, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(f.basePath, name), nil
}

// errEmptyPath indicates an empty file path was provided.
var errEmptyPath = errors.New("path is empty")

// writeAtomic writes data to path with the provided permissions via a temp
// file in the same directory, so readers never observe a partial write.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return errEmptyPath
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: path is built from a validated key
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best effort directory sync for rename durability.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from validated path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}
