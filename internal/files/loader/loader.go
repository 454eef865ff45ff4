package loader

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/vvka-141/pgplan/internal/files/filesystem"
	"github.com/vvka-141/pgplan/internal/files/scanner"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Loader reads definitions from a directory or manifest.
type Loader struct {
	fsProvider filesystem.FileSystemProvider
	scanner    *scanner.Scanner
}

// New creates a loader over the given filesystem provider.
// Panics if fsProvider is nil.
func New(fsProvider filesystem.FileSystemProvider) *Loader {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Loader{
		fsProvider: fsProvider,
		scanner:    scanner.NewScanner(fsProvider),
	}
}

// Load returns the definitions found at sourcePath, in authoring order.
func (l *Loader) Load(sourcePath string) ([]pgplan.Definition, error) {
	info, err := l.fsProvider.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("definitions not found at %s (%v): %w", sourcePath, err, pgplan.ErrInvalidConfig)
	}

	if info.IsDir() {
		return l.scanner.ScanDirectory(sourcePath)
	}

	content, err := l.fsProvider.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sourcePath, err)
	}

	var entries []manifestEntry
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".yaml", ".yml":
		entries, err = decodeYAML(content, sourcePath)
	case ".hcl":
		entries, err = decodeHCL(content, sourcePath)
	default:
		return nil, fmt.Errorf("unsupported definitions source %s (expected a directory, .yaml, .yml or .hcl): %w",
			sourcePath, pgplan.ErrInvalidConfig)
	}
	if err != nil {
		return nil, err
	}

	return l.resolveBodies(entries, sourcePath)
}

// manifestEntry is the format-neutral form both manifest decoders produce.
type manifestEntry struct {
	def  pgplan.Definition
	file string
}

func (l *Loader) resolveBodies(entries []manifestEntry, manifestPath string) ([]pgplan.Definition, error) {
	baseDir := path.Dir(filepath.ToSlash(manifestPath))
	defs := make([]pgplan.Definition, 0, len(entries))

	for _, e := range entries {
		def := e.def
		def.Source = manifestPath

		switch {
		case e.file != "" && def.Body != "":
			return nil, &pgplan.ParseError{Object: def.Name, Source: manifestPath, Field: "file",
				Message: "body and file are mutually exclusive"}
		case e.file != "":
			bodyPath := e.file
			if !path.IsAbs(bodyPath) {
				bodyPath = path.Join(baseDir, bodyPath)
			}
			content, err := l.fsProvider.ReadFile(filepath.FromSlash(bodyPath))
			if err != nil {
				return nil, &pgplan.ParseError{Object: def.Name, Source: manifestPath, Field: "file",
					Message: fmt.Sprintf("cannot read %s: %v", e.file, err)}
			}
			def.Body = string(content)
			def.Source = bodyPath
		}

		defs = append(defs, def)
	}

	return defs, nil
}
