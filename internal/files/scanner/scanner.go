package scanner

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/vvka-141/pgplan/internal/files/filesystem"
	"github.com/vvka-141/pgplan/internal/metadata"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Scanner discovers annotated SQL files.
// Scanner is safe for concurrent use as long as the filesystem provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the given filesystem provider.
// Panics if fsProvider is nil.
func NewScanner(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// ScanDirectory returns one definition per SQL file under sourcePath, in
// lexical path order. Source paths in the result are relative to sourcePath.
func (s *Scanner) ScanDirectory(sourcePath string) ([]pgplan.Definition, error) {
	var defs []pgplan.Definition
	var errs []error

	err := s.fsProvider.WalkFiles(sourcePath, func(file filesystem.File) error {
		if !isSQLExtension(path.Ext(file.RelativePath())) {
			return nil
		}

		def, err := s.processFile(file)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", sourcePath, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return defs, nil
}

func (s *Scanner) processFile(file filesystem.File) (pgplan.Definition, error) {
	relPath := file.RelativePath()

	content, err := file.ReadContent()
	if err != nil {
		return pgplan.Definition{}, fmt.Errorf("failed to read %s: %w", relPath, err)
	}

	obj, err := metadata.ExtractAndValidate(string(content), relPath)
	if errors.Is(err, metadata.ErrNoMetadata) {
		return pgplan.Definition{}, &pgplan.ParseError{
			Source:  relPath,
			Message: "missing <pgplan-object name=\"...\"> header in the first block comment",
		}
	}
	if err != nil {
		return pgplan.Definition{}, err
	}

	return obj.ToDefinition(string(content), relPath), nil
}

// isSQLExtension checks if the file extension indicates a SQL file.
func isSQLExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".sql", ".ddl", ".psql", ".pgsql", ".plpgsql":
		return true
	default:
		return false
	}
}
