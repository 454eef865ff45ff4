package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// MetadataError represents a structured error with context and helpful hints.
// It matches pgplan.ErrParse.
type MetadataError struct {
	FilePath string // Path to the file with the error
	Line     int    // Line number (0 if unknown)
	Field    string // Field name (e.g., "name", "dependsOn[1]") if applicable
	Message  string // Primary error message
	Hint     string // Actionable suggestion for fixing
}

// Error implements the error interface with rich formatting.
func (e *MetadataError) Error() string {
	location := e.FilePath
	if e.Line > 0 {
		location = fmt.Sprintf("%s (line %d)", e.FilePath, e.Line)
	}

	msg := fmt.Sprintf("object header error in %s: %s", location, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("object header error in %s [field: %s]: %s", location, e.Field, e.Message)
	}

	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}

	return msg
}

func (e *MetadataError) Unwrap() error { return pgplan.ErrParse }

// wrapXMLError converts xml package errors to MetadataError with line numbers.
func wrapXMLError(err error, filePath string) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &MetadataError{
			FilePath: filePath,
			Line:     syntaxErr.Line,
			Message:  syntaxErr.Msg,
			Hint: "Check that all XML tags are properly closed and attributes are quoted.\n\n" +
				"Expected format:\n" +
				"  <pgplan-object name=\"schema.table\" ordinal=\"1\">\n" +
				"    <dependsOn object=\"schema.other\" columns=\"other_id\"/>\n" +
				"  </pgplan-object>",
		}
	}

	return &MetadataError{
		FilePath: filePath,
		Message:  err.Error(),
		Hint:     "Verify the header XML structure matches the <pgplan-object> format.",
	}
}

// formatValidationErrors converts ValidationResult to a user-friendly error.
func formatValidationErrors(result ValidationResult, filePath string) error {
	if result.Valid {
		return nil
	}

	var msg strings.Builder
	for i, err := range result.Errors {
		fmt.Fprintf(&msg, "\n  %d. %s", i+1, err)
	}

	return &MetadataError{
		FilePath: filePath,
		Message:  "invalid object header:" + msg.String(),
	}
}
