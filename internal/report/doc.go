// Package report renders plans, execution reports and validation reports as
// text, JSON or YAML, and derives rollback guidance from execution reports.
package report
