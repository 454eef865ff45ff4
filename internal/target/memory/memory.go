// Package memory provides an in-process pgplan.Target that records every call.
//
// It mimics the failure modes of a real database closely enough for ordering
// bugs to surface: creating an object whose structural dependency is missing
// fails, as does a constraint whose referenced object does not exist yet.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

var _ pgplan.Target = (*Target)(nil)

// Call records one invocation of the target.
type Call struct {
	Method  string
	Subject string
}

// Mutating reports whether the call changes target state.
func (c Call) Mutating() bool {
	return c.Method == "ApplyObjectDefinition" || c.Method == "ApplyConstraint"
}

// Target is an in-memory schema.
type Target struct {
	mu          sync.Mutex
	objects     map[string]bool
	constraints map[string]pgplan.DependencyEdge
	failures    map[string]error
	probeErr    error
	calls       []Call
}

// New creates an empty target.
func New() *Target {
	return &Target{
		objects:     make(map[string]bool),
		constraints: make(map[string]pgplan.DependencyEdge),
		failures:    make(map[string]error),
	}
}

// FailOn makes the step whose subject matches fail with err. The subject is
// the object name for CreateObject steps and "from -> to" for deferred constraints.
func (t *Target) FailOn(subject string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[subject] = err
}

// FailProbes makes every existence probe return err.
func (t *Target) FailProbes(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probeErr = err
}

func (t *Target) ApplyObjectDefinition(_ context.Context, obj *pgplan.SchemaObject, inline []pgplan.DependencyEdge) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("ApplyObjectDefinition", obj.Name)

	if err := t.failures[obj.Name]; err != nil {
		return err
	}
	if t.objects[obj.Name] {
		return fmt.Errorf("%s %q already exists", obj.Type, obj.Name)
	}
	for _, dep := range obj.Dependencies {
		if dep.Kind == pgplan.Structural && !t.objects[dep.To] {
			return fmt.Errorf("%s %q requires %q, which does not exist", obj.Type, obj.Name, dep.To)
		}
	}
	for _, edge := range inline {
		if edge.To != obj.Name && !t.objects[edge.To] {
			return fmt.Errorf("relation %q referenced by %q does not exist", edge.To, obj.Name)
		}
	}

	t.objects[obj.Name] = true
	for _, edge := range inline {
		t.constraints[edge.Key()] = edge
	}
	return nil
}

func (t *Target) ApplyConstraint(_ context.Context, edge pgplan.DependencyEdge) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("ApplyConstraint", edge.String())

	if err := t.failures[edge.String()]; err != nil {
		return err
	}
	for _, name := range []string{edge.From, edge.To} {
		if !t.objects[name] {
			return fmt.Errorf("relation %q does not exist", name)
		}
	}
	if _, ok := t.constraints[edge.Key()]; ok {
		return fmt.Errorf("constraint %q for %s already exists", edge.ConstraintName(), edge)
	}
	t.constraints[edge.Key()] = edge
	return nil
}

func (t *Target) ObjectExists(_ context.Context, obj *pgplan.SchemaObject) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("ObjectExists", obj.Name)
	if t.probeErr != nil {
		return false, t.probeErr
	}
	return t.objects[obj.Name], nil
}

func (t *Target) ConstraintExists(_ context.Context, edge pgplan.DependencyEdge) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("ConstraintExists", edge.String())
	if t.probeErr != nil {
		return false, t.probeErr
	}
	_, ok := t.constraints[edge.Key()]
	return ok, nil
}

// DropConstraint removes a constraint out of band.
func (t *Target) DropConstraint(edge pgplan.DependencyEdge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.constraints, edge.Key())
}

// DropObject removes an object and the constraints touching it out of band.
func (t *Target) DropObject(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objects, name)
	for key, edge := range t.constraints {
		if edge.From == name || edge.To == name {
			delete(t.constraints, key)
		}
	}
}

// Calls returns every recorded call in order.
func (t *Target) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Mutations counts calls that changed or tried to change state.
func (t *Target) Mutations() int {
	n := 0
	for _, c := range t.Calls() {
		if c.Mutating() {
			n++
		}
	}
	return n
}

// Objects returns the created object names in creation order.
func (t *Target) Objects() []string {
	var names []string
	for _, c := range t.Calls() {
		if c.Method == "ApplyObjectDefinition" && t.has(c.Subject) {
			names = append(names, c.Subject)
		}
	}
	return names
}

func (t *Target) has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.objects[name]
}

func (t *Target) record(method, subject string) {
	t.calls = append(t.calls, Call{Method: method, Subject: subject})
}
