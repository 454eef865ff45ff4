// Package catalog holds the declared set of schema objects.
//
// A Catalog is built once per run from definitions and is read-only
// afterwards. Load rejects malformed definitions with *pgplan.ParseError and
// dangling dependency names with *pgplan.UnknownReferenceError; all problems
// found are reported together.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var referentialActions = map[string]bool{
	"":            true,
	"no action":   true,
	"restrict":    true,
	"cascade":     true,
	"set null":    true,
	"set default": true,
}

// Catalog is the immutable set of declared objects.
type Catalog struct {
	objects []*pgplan.SchemaObject
	byName  map[string]*pgplan.SchemaObject
}

var _ pgplan.Catalog = (*Catalog)(nil)

// Load validates definitions and builds the catalog.
//
// An ordinal of 0 is replaced by the definition's 1-based position in defs.
// Dependencies without a structural flag are referential.
func Load(defs []pgplan.Definition) (*Catalog, error) {
	c := &Catalog{
		objects: make([]*pgplan.SchemaObject, 0, len(defs)),
		byName:  make(map[string]*pgplan.SchemaObject, len(defs)),
	}

	var errs []error
	for i, def := range defs {
		obj, defErrs := buildObject(def, i+1)
		errs = append(errs, defErrs...)
		if obj == nil {
			continue
		}
		if prev, dup := c.byName[obj.Name]; dup {
			errs = append(errs, &pgplan.ParseError{
				Object:  obj.Name,
				Source:  def.Source,
				Field:   "name",
				Message: fmt.Sprintf("duplicate object name, first declared at ordinal %d%s", prev.Ordinal, sourceSuffix(prev.Source)),
			})
			continue
		}
		c.byName[obj.Name] = obj
		c.objects = append(c.objects, obj)
	}

	for _, obj := range c.objects {
		for _, edge := range obj.Dependencies {
			if _, ok := c.byName[edge.To]; !ok {
				errs = append(errs, &pgplan.UnknownReferenceError{From: edge.From, To: edge.To})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(c.objects, func(i, j int) bool {
		a, b := c.objects[i], c.objects[j]
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.Name < b.Name
	})

	return c, nil
}

func buildObject(def pgplan.Definition, position int) (*pgplan.SchemaObject, []error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, []error{&pgplan.ParseError{Source: def.Source, Field: "name",
			Message: fmt.Sprintf("definition #%d has no name", position)}}
	}

	var errs []error
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, &pgplan.ParseError{Object: name, Source: def.Source, Field: field,
			Message: fmt.Sprintf(format, args...)})
	}

	ordinal := def.Ordinal
	if ordinal < 0 {
		fail("ordinal", "must be non-negative, got %d", ordinal)
	}
	if ordinal == 0 {
		ordinal = position
	}

	objType, err := pgplan.ParseObjectType(def.Type)
	if err != nil {
		fail("type", "%v", err)
	}

	if strings.TrimSpace(def.Body) == "" {
		fail("body", "must not be empty")
	}

	obj := &pgplan.SchemaObject{
		Name:    name,
		Ordinal: ordinal,
		Type:    objType,
		Body:    def.Body,
		Source:  def.Source,
	}

	seen := make(map[string]bool, len(def.DependsOn))
	for i, dep := range def.DependsOn {
		field := fmt.Sprintf("depends_on[%d]", i)
		target := strings.TrimSpace(dep.Object)
		if target == "" {
			fail(field, "dependency has no object name")
			continue
		}

		edge := pgplan.DependencyEdge{From: name, To: target, Kind: pgplan.Referential, Constraint: normalizeConstraint(dep.Constraint)}
		if dep.Structural {
			edge.Kind = pgplan.Structural
			if edge.Constraint.IsDefined() || edge.Constraint.Name != "" {
				fail(field, "structural dependency on %q cannot declare a constraint", target)
			}
			edge.Constraint = pgplan.ConstraintSpec{}
		} else {
			errs = append(errs, checkConstraint(name, def.Source, field, target, edge.Constraint)...)
		}

		if seen[edge.Key()] {
			fail(field, "duplicate dependency on %q", target)
			continue
		}
		seen[edge.Key()] = true
		obj.Dependencies = append(obj.Dependencies, edge)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return obj, nil
}

func normalizeConstraint(c pgplan.ConstraintSpec) pgplan.ConstraintSpec {
	return pgplan.ConstraintSpec{
		Name:       strings.TrimSpace(c.Name),
		Columns:    trimAll(c.Columns),
		References: trimAll(c.References),
		OnDelete:   strings.ToLower(strings.TrimSpace(c.OnDelete)),
		OnUpdate:   strings.ToLower(strings.TrimSpace(c.OnUpdate)),
		SQL:        strings.TrimSpace(c.SQL),
	}
}

func checkConstraint(object, source, field, target string, c pgplan.ConstraintSpec) []error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, &pgplan.ParseError{Object: object, Source: source, Field: field,
			Message: fmt.Sprintf("dependency on %q: ", target) + fmt.Sprintf(format, args...)})
	}

	if !referentialActions[c.OnDelete] {
		fail("on_delete %q is not a referential action", c.OnDelete)
	}
	if !referentialActions[c.OnUpdate] {
		fail("on_update %q is not a referential action", c.OnUpdate)
	}
	if len(c.References) > 0 && len(c.References) != len(c.Columns) {
		fail("%d column(s) but %d reference(s)", len(c.Columns), len(c.References))
	}
	if c.SQL != "" && len(c.Columns) > 0 {
		fail("sql and columns are mutually exclusive")
	}
	if c.SQL != "" && c.Name == "" {
		fail("a constraint given as sql needs an explicit constraint name so it can be validated")
	}
	return errs
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sourceSuffix(source string) string {
	if source == "" {
		return ""
	}
	return " in " + source
}

// Objects returns every object ordered by ordinal, then name.
func (c *Catalog) Objects() []*pgplan.SchemaObject {
	return append([]*pgplan.SchemaObject(nil), c.objects...)
}

// Lookup finds an object by name.
func (c *Catalog) Lookup(name string) (*pgplan.SchemaObject, bool) {
	obj, ok := c.byName[name]
	return obj, ok
}

// Len returns the number of objects.
func (c *Catalog) Len() int {
	return len(c.objects)
}

// Edges returns every declared dependency in object order.
func (c *Catalog) Edges() []pgplan.DependencyEdge {
	var edges []pgplan.DependencyEdge
	for _, obj := range c.objects {
		edges = append(edges, obj.Dependencies...)
	}
	return edges
}
