package fsys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultFileMode is used for files the patch creates.
const DefaultFileMode os.FileMode = 0644

// FileInfo represents information about a file
type FileInfo struct {
	Path    string
	Size    int64
	Mode    os.FileMode
	IsDir   bool
	ModTime int64
	Exists  bool
}

// FS exposes an afero filesystem through the read/write/remove capabilities
// the patch pipeline needs. Paths are slash separated and relative to the
// filesystem root.
type FS struct {
	fs afero.Fs
}

// New wraps an arbitrary afero filesystem.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS returns a filesystem confined to root on the local disk.
func NewOS(root string) *FS {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewMem returns an empty in-memory filesystem.
func NewMem() *FS {
	return New(afero.NewMemMapFs())
}

// Afero returns the underlying filesystem.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// ReadFile returns the text content of path.
func (f *FS) ReadFile(path string) (string, error) {
	name := filepath.FromSlash(path)
	info, err := f.fs.Stat(name)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	content, err := afero.ReadFile(f.fs, name)
	if err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return string(content), nil
}

// WriteFile writes content to path, creating parent directories. An existing
// file keeps its permissions.
func (f *FS) WriteFile(path, content string) error {
	name := filepath.FromSlash(path)
	if err := f.fs.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("error creating directories: %w", err)
	}

	mode := DefaultFileMode
	if info, err := f.fs.Stat(name); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = info.Mode().Perm()
	}

	if err := afero.WriteFile(f.fs, name, []byte(content), mode); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	return nil
}

// RemoveFile deletes path. Removing a file that does not exist succeeds.
func (f *FS) RemoveFile(path string) error {
	err := f.fs.Remove(filepath.FromSlash(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing file: %w", err)
	}
	return nil
}

// Stat describes path. A missing path is reported through Exists rather than
// an error.
func (f *FS) Stat(path string) (*FileInfo, error) {
	info, err := f.fs.Stat(filepath.FromSlash(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileInfo{Path: path}, nil
		}
		return nil, fmt.Errorf("error getting file info: %w", err)
	}

	return &FileInfo{
		Path:    path,
		Size:    info.Size(),
		Mode:    info.Mode(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime().Unix(),
		Exists:  true,
	}, nil
}

// Exists checks if a file or directory exists
func (f *FS) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, filepath.FromSlash(path))
	return err == nil && ok
}
