package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type memoryFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

func (f *memoryFileInfo) Mode() fs.FileMode {
	if f.isDir {
		return 0o755 | fs.ModeDir
	}
	return 0o644
}

type memoryFile struct {
	path    string
	relPath string
	content []byte
}

func (f *memoryFile) Path() string                 { return f.path }
func (f *memoryFile) RelativePath() string         { return f.relPath }
func (f *memoryFile) ReadContent() ([]byte, error) { return f.content, nil }

// MemoryFileSystem implements FileSystemProvider over an in-memory tree.
// Paths are slash-separated; relative paths are resolved against root.
type MemoryFileSystem struct {
	root  string
	files map[string][]byte
}

// NewMemoryFileSystem creates an empty in-memory filesystem rooted at root.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	return &MemoryFileSystem{
		root:  path.Clean(filepath.ToSlash(root)),
		files: make(map[string][]byte),
	}
}

// AddFile adds or replaces a file.
func (m *MemoryFileSystem) AddFile(filePath string, content string) {
	m.files[m.abs(filePath)] = []byte(content)
}

func (m *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if !path.IsAbs(p) {
		p = path.Join(m.root, p)
	}
	return path.Clean(p)
}

func (m *MemoryFileSystem) isDir(p string) bool {
	if p == m.root {
		return true
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			return true
		}
	}
	return false
}

func (m *MemoryFileSystem) Stat(p string) (FileInfo, error) {
	abs := m.abs(p)
	if content, ok := m.files[abs]; ok {
		return &memoryFileInfo{name: path.Base(abs), size: int64(len(content))}, nil
	}
	if m.isDir(abs) {
		return &memoryFileInfo{name: path.Base(abs), isDir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

func (m *MemoryFileSystem) ReadFile(p string) ([]byte, error) {
	content, ok := m.files[m.abs(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return content, nil
}

func (m *MemoryFileSystem) WalkFiles(root string, fn func(File) error) error {
	absRoot := m.abs(root)
	if _, ok := m.files[absRoot]; ok {
		return fmt.Errorf("path is not a directory: %s", root)
	}
	if !m.isDir(absRoot) {
		return fmt.Errorf("failed to access path: %w", &fs.PathError{Op: "stat", Path: root, Err: fs.ErrNotExist})
	}

	prefix := strings.TrimSuffix(absRoot, "/") + "/"
	var paths []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return lessBySegment(paths[i], paths[j]) })

	for _, p := range paths {
		rel := strings.TrimPrefix(p, prefix)
		if err := fn(&memoryFile{path: path.Join(root, rel), relPath: rel, content: m.files[p]}); err != nil {
			return err
		}
	}
	return nil
}

// lessBySegment orders paths the way filepath.WalkDir visits them.
func lessBySegment(a, b string) bool {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
