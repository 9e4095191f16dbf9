package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is a temp file in the destination directory that replaces the
// destination only on Commit. Readers never observe a partially written file.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a temp file next to target with the given mode.
func CreateAtomic(target string, mode os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("chmod temp file: %w", err)
	}
	return &AtomicFile{File: tmp, target: target}, nil
}

// Commit syncs and closes the temp file, then renames it over the target.
func (a *AtomicFile) Commit() error {
	if a.done {
		return errors.New("atomic file already finished")
	}
	a.done = true
	name := a.Name()
	if err := a.Sync(); err != nil {
		_ = a.File.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := a.File.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, a.target); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort closes and removes the temp file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a == nil || a.done {
		return
	}
	a.done = true
	_ = a.File.Close()
	_ = os.Remove(a.Name())
}

// WriteFileAtomic writes data to path via CreateAtomic.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	out, err := CreateAtomic(path, mode)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Abort()
		return fmt.Errorf("write temp file: %w", err)
	}
	return out.Commit()
}
