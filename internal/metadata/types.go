package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Object represents the parsed <pgplan-object> element from a SQL file comment.
type Object struct {
	XMLName     xml.Name     `xml:"pgplan-object"`
	Name        string       `xml:"name,attr"`
	Ordinal     int          `xml:"ordinal,attr"`
	Type        string       `xml:"type,attr"`
	Description string       `xml:"description"`
	DependsOn   []Dependency `xml:"dependsOn"`
}

// Dependency represents one <dependsOn> element.
type Dependency struct {
	Object     string `xml:"object,attr"`
	Structural bool   `xml:"structural,attr"`
	Constraint string `xml:"constraint,attr"`
	Columns    string `xml:"columns,attr"`
	References string `xml:"references,attr"`
	OnDelete   string `xml:"onDelete,attr"`
	OnUpdate   string `xml:"onUpdate,attr"`
	SQL        string `xml:",chardata"`
}

// ColumnList splits the comma-separated columns attribute.
func (d Dependency) ColumnList() []string {
	return splitList(d.Columns)
}

// ReferenceList splits the comma-separated references attribute.
func (d Dependency) ReferenceList() []string {
	return splitList(d.References)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidationResult contains the outcome of header validation.
// If Valid is false, Errors contains human-readable error messages.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError appends an error message to the validation result and marks it as invalid.
func (v *ValidationResult) AddError(format string, args ...interface{}) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if the validation result contains errors.
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// ErrorString returns all validation errors joined with semicolons.
func (v *ValidationResult) ErrorString() string {
	return strings.Join(v.Errors, "; ")
}
