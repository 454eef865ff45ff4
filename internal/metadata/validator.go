package metadata

import (
	"regexp"
	"strings"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

var referentialActions = map[string]bool{
	"no action":   true,
	"restrict":    true,
	"cascade":     true,
	"set null":    true,
	"set default": true,
}

// Validate checks a parsed header against the header rules.
func Validate(o *Object, filePath string) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if strings.TrimSpace(o.Name) == "" {
		result.AddError("name attribute is required")
	} else if !identifierRegex.MatchString(o.Name) {
		result.AddError("name %q is not a plain or schema-qualified identifier", o.Name)
	}

	if o.Ordinal < 0 {
		result.AddError("ordinal must be non-negative, got %d", o.Ordinal)
	}

	if _, err := pgplan.ParseObjectType(o.Type); err != nil {
		result.AddError("type: %v", err)
	}

	for i, dep := range o.DependsOn {
		if strings.TrimSpace(dep.Object) == "" {
			result.AddError("dependsOn[%d]: object attribute is required", i)
			continue
		}

		if dep.Structural {
			if dep.Columns != "" || dep.References != "" || dep.Constraint != "" || dep.SQL != "" ||
				dep.OnDelete != "" || dep.OnUpdate != "" {
				result.AddError("dependsOn[%d] (%s): structural dependencies cannot declare a constraint", i, dep.Object)
			}
			continue
		}

		for _, action := range []struct{ field, value string }{{"onDelete", dep.OnDelete}, {"onUpdate", dep.OnUpdate}} {
			if action.value != "" && !referentialActions[strings.ToLower(action.value)] {
				result.AddError("dependsOn[%d] (%s): %s %q is not a referential action", i, dep.Object, action.field, action.value)
			}
		}

		cols, refs := dep.ColumnList(), dep.ReferenceList()
		if len(refs) > 0 && len(cols) != len(refs) {
			result.AddError("dependsOn[%d] (%s): %d column(s) but %d reference(s)", i, dep.Object, len(cols), len(refs))
		}
		if len(refs) > 0 && len(cols) == 0 {
			result.AddError("dependsOn[%d] (%s): references requires columns", i, dep.Object)
		}
	}

	return result
}
