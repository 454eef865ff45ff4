package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type osFile struct {
	path    string
	relPath string
}

func (f *osFile) Path() string                 { return f.path }
func (f *osFile) RelativePath() string         { return f.relPath }
func (f *osFile) ReadContent() ([]byte, error) { return os.ReadFile(f.path) }

// OSFileSystem implements FileSystemProvider for the OS filesystem.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem provider.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}

func (p *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WalkFiles uses filepath.WalkDir, which visits entries in lexical order.
func (p *OSFileSystem) WalkFiles(root string, fn func(File) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		return fn(&osFile{path: path, relPath: filepath.ToSlash(rel)})
	})
}

var _ FileSystemProvider = (*OSFileSystem)(nil)
