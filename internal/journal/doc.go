// Package journal appends execution reports to a local SQLite file.
//
// The journal is an audit trail. Nothing in planning or execution reads it back.
package journal
