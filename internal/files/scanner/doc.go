// Package scanner discovers annotated SQL files in a directory tree and turns
// each into a definition using its <pgplan-object> header.
//
// Files are visited in lexical path order. Every SQL file must carry a header;
// other files are ignored.
package scanner
