package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// File is a regular file found while walking a directory.
type File interface {
	// Path returns the path as given to the provider, joined with the file's relative path.
	Path() string

	// RelativePath returns the slash-separated path relative to the walked root.
	RelativePath() string

	// ReadContent returns the file's content.
	ReadContent() ([]byte, error)
}

// FileSystemProvider is the read-only file access used by definition loaders.
type FileSystemProvider interface {
	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)

	// ReadFile reads a specific file at the given path.
	ReadFile(path string) ([]byte, error)

	// WalkFiles calls fn for every regular file under root in lexical path order.
	// Returning an error from fn stops the walk and returns that error.
	WalkFiles(root string, fn func(File) error) error
}
