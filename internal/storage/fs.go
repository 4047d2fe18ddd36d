package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/checksum"
)

// FS implements Provider backed by the local file system. The note
// directory is flat; subdirectories are never descended into.
type FS struct {
	root string // absolute path to note directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute path of the note directory.
func (f *FS) Root() string {
	return f.root
}

// IsNoteName reports whether name is a valid note file name: a stem of
// exactly 10 ASCII digits plus the note extension.
func IsNoteName(name string) bool {
	stem, ok := strings.CutSuffix(name, NoteExt)
	if !ok || len(stem) != 10 {
		return false
	}
	for i := 0; i < len(stem); i++ {
		if stem[i] < '0' || stem[i] > '9' {
			return false
		}
	}
	return true
}

// NoteFileName returns the file name for a note id.
func NoteFileName(id string) string {
	return id + NoteExt
}

// IDFromPath returns the filename stem of a note path.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, NoteExt)
}

// safePath resolves a relative path against the note directory and
// rejects any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes note directory: %s", rel)
	}
	return abs, nil
}

// List returns metadata for every valid note file in the directory.
// Files whose name is not a 10-digit id with the note extension are
// filtered out here so they never reach the index.
func (f *FS) List() ([]FileMeta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []FileMeta
	for _, e := range entries {
		if e.IsDir() || !IsNoteName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, FileMeta{
			Path:      e.Name(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of a note file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file, fsync, rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the note directory.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}
