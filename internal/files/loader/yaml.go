package loader

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

type yamlManifest struct {
	Objects []yamlObject `yaml:"objects"`
}

type yamlObject struct {
	Name      string           `yaml:"name"`
	Ordinal   int              `yaml:"ordinal"`
	Type      string           `yaml:"type"`
	Body      string           `yaml:"body"`
	File      string           `yaml:"file"`
	DependsOn []yamlDependency `yaml:"depends_on"`
}

type yamlDependency struct {
	Object     string   `yaml:"object"`
	Structural bool     `yaml:"structural"`
	Constraint string   `yaml:"constraint"`
	Columns    []string `yaml:"columns"`
	References []string `yaml:"references"`
	OnDelete   string   `yaml:"on_delete"`
	OnUpdate   string   `yaml:"on_update"`
	SQL        string   `yaml:"sql"`
}

func decodeYAML(content []byte, sourcePath string) ([]manifestEntry, error) {
	var m yamlManifest
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, &pgplan.ParseError{Source: sourcePath, Message: err.Error()}
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
