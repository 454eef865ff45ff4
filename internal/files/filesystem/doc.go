// Package filesystem abstracts the file access needed to read definition sources.
//
// Implementations:
//   - OSFileSystem: the operating system filesystem
//   - MemoryFileSystem: an in-memory tree for tests
//
// Both walk files in lexical path order, which is the order used to assign
// implicit ordinals to definitions.
package filesystem
