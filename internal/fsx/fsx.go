// Package fsx holds the atomic file writes used for generated assets and
// cache entries.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// PathTypeConflictError reports that a destination exists with the wrong type,
// for example a directory where a file is expected.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict at %q: want %s, got %s", e.Path, e.Want, e.Got)
}

// IsPathTypeConflict reports whether err is a *PathTypeConflictError.
func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// EnsureDir creates dir and its parents. An existing non-directory at dir is
// a *PathTypeConflictError.
func EnsureDir(dir string) error {
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
		}
		return nil
	}
	return os.MkdirAll(dir, dirPerm)
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory and a rename, replacing any existing file.
func WriteFileAtomic(path string, data []byte) error {
	return WriteFileAtomicPerm(path, data, filePerm)
}

// WriteFileAtomicPerm is WriteFileAtomic with an explicit mode.
func WriteFileAtomicPerm(path string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
	}
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return err
	}

	_ = syncDirBestEffort(dir)
	return nil
}

// CopyFileAtomic copies src to dst atomically and returns the bytes copied.
func CopyFileAtomic(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return 0, err
	}
	if err = WriteFileAtomic(dst, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
