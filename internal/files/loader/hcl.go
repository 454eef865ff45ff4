package loader

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// hclManifest represents the top-level structure of an HCL manifest for decoding.
type hclManifest struct {
	Objects []*hclObject `hcl:"object,block"`
}

type hclObject struct {
	Name      string           `hcl:"name,label"`
	Ordinal   int              `hcl:"ordinal,optional"`
	Type      string           `hcl:"type,optional"`
	Body      string           `hcl:"body,optional"`
	File      string           `hcl:"file,optional"`
	DependsOn []*hclDependency `hcl:"depends_on,block"`
}

type hclDependency struct {
	Object     string   `hcl:"object,label"`
	Structural bool     `hcl:"structural,optional"`
	Constraint string   `hcl:"constraint,optional"`
	Columns    []string `hcl:"columns,optional"`
	References []string `hcl:"references,optional"`
	OnDelete   string   `hcl:"on_delete,optional"`
	OnUpdate   string   `hcl:"on_update,optional"`
	SQL        string   `hcl:"sql,optional"`
}

func decodeHCL(content []byte, sourcePath string) ([]manifestEntry, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(content, sourcePath)
	if diags.HasErrors() {
		return nil, &pgplan.ParseError{Source: sourcePath, Message: diags.Error()}
	}

	var m hclManifest
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &m); diags.HasErrors() {
		return nil, &pgplan.ParseError{Source: sourcePath, Message: diags.Error()}
	}

	entries := make([]manifestEntry, 0, len(m.Objects))
	for _, o := range m.Objects {
		def := pgplan.Definition{
			Name:    o.Name,
			Ordinal: o.Ordinal,
			Type:    o.Type,
			Body:    o.Body,
		}
		for _, d := range o.DependsOn {
			def.DependsOn = append(def.DependsOn, pgplan.DependencySpec{
				Object:     d.Object,
				Structural: d.Structural,
				Constraint: pgplan.ConstraintSpec{
					Name:       d.Constraint,
					Columns:    d.Columns,
					References: d.References,
					OnDelete:   d.OnDelete,
					OnUpdate:   d.OnUpdate,
					SQL:        d.SQL,
				},
			})
		}
		entries = append(entries, manifestEntry{def: def, file: o.File})
	}

	return entries, nil
}
