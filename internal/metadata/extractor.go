package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNoMetadata = errors.New("no pgplan-object header found")

const (
	MaxMetadataSize = 10 * 1024
)

// blockCommentRegex matches SQL block comments /* ... */
var blockCommentRegex = regexp.MustCompile(`(?s)/\*\s*(.*?)\s*\*/`)

// objectElementRegex detects the presence of <pgplan-object tags
var objectElementRegex = regexp.MustCompile(`<\s*pgplan-object[\s>/]`)

// Extract parses the object header from the block comments of a SQL file.
//
// Error cases:
//   - No block comment or no <pgplan-object> → ErrNoMetadata
//   - Multiple <pgplan-object> blocks → MetadataError
//   - Invalid XML syntax → MetadataError with line number
func Extract(content string, filePath string) (*Object, error) {
	matches := blockCommentRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, ErrNoMetadata
	}

	var headerXML string
	var headerCount int

	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		if objectElementRegex.MatchString(match[1]) {
			headerCount++
			if headerCount > 1 {
				return nil, &MetadataError{
					FilePath: filePath,
					Message:  "Multiple object headers found",
					Hint:     "Only one <pgplan-object> block is allowed per file. Split the file or remove duplicates.",
				}
			}
			headerXML = match[1]
		}
	}

	if headerCount == 0 {
		return nil, ErrNoMetadata
	}

	if len(headerXML) > MaxMetadataSize {
		return nil, &MetadataError{
			FilePath: filePath,
			Message:  fmt.Sprintf("Object header exceeds maximum size of %d bytes (got %d bytes)", MaxMetadataSize, len(headerXML)),
			Hint:     "Keep headers to names and dependencies. Move long descriptions to documentation.",
		}
	}

	var obj Object
	decoder := xml.NewDecoder(strings.NewReader(headerXML))
	if err := decoder.Decode(&obj); err != nil {
		return nil, wrapXMLError(err, filePath)
	}

	for i := range obj.DependsOn {
		obj.DependsOn[i].SQL = strings.TrimSpace(obj.DependsOn[i].SQL)
	}
	obj.Description = strings.TrimSpace(obj.Description)

	return &obj, nil
}

// ExtractAndValidate combines extraction and validation in one call.
//
// Returns:
//   - *Object: Parsed and validated header
//   - error: ErrNoMetadata (not fatal for callers that allow plain files), or validation/parsing error
func ExtractAndValidate(content string, filePath string) (*Object, error) {
	obj, err := Extract(content, filePath)
	if err != nil {
		return nil, err
	}

	result := Validate(obj, filePath)
	if !result.Valid {
		return nil, formatValidationErrors(result, filePath)
	}

	return obj, nil
}
