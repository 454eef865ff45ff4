package metadata

import (
	"strings"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// ToDefinition converts a validated header and its file into a definition.
// The whole file content, header included, becomes the body.
func (o *Object) ToDefinition(content, filePath string) pgplan.Definition {
	def := pgplan.Definition{
		Name:    strings.TrimSpace(o.Name),
		Ordinal: o.Ordinal,
		Type:    o.Type,
		Body:    content,
		Source:  filePath,
	}

	for _, dep := range o.DependsOn {
		spec := pgplan.DependencySpec{
			Object:     strings.TrimSpace(dep.Object),
			Structural: dep.Structural,
		}
		if !dep.Structural {
			spec.Constraint = pgplan.ConstraintSpec{
				Name:       dep.Constraint,
				Columns:    dep.ColumnList(),
				References: dep.ReferenceList(),
				OnDelete:   strings.ToLower(dep.OnDelete),
				OnUpdate:   strings.ToLower(dep.OnUpdate),
				SQL:        dep.SQL,
			}
		}
		def.DependsOn = append(def.DependsOn, spec)
	}

	return def
}
