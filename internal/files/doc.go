// Package files groups the packages that turn definition sources on disk into
// pgplan definitions:
//   - filesystem: OS and in-memory file access
//   - scanner: annotated SQL directories, one object per file
//   - loader: entry point that dispatches on the source path (directory, YAML or HCL manifest)
//
// # Usage
//
//	defs, err := loader.New(filesystem.NewOSFileSystem()).Load("./schema")
package files
