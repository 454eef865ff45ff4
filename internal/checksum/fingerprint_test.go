package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

func fingerprintSteps(body string, deferred bool) []pgplan.Step {
	families := &pgplan.SchemaObject{Name: "families", Ordinal: 1, Type: pgplan.ObjectTable, Body: body}
	goals := &pgplan.SchemaObject{Name: "goals", Ordinal: 2, Type: pgplan.ObjectTable, Body: "CREATE TABLE goals (family_id BIGINT);"}
	edge := pgplan.DependencyEdge{From: "goals", To: "families",
		Constraint: pgplan.ConstraintSpec{Columns: []string{"family_id"}, References: []string{"id"}}}

	if deferred {
		return []pgplan.Step{
			pgplan.CreateObject(families, nil),
			pgplan.CreateObject(goals, nil),
			pgplan.ApplyDeferredConstraint(edge),
		}
	}
	return []pgplan.Step{
		pgplan.CreateObject(families, nil),
		pgplan.CreateObject(goals, []pgplan.DependencyEdge{edge}),
	}
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint(fingerprintSteps("CREATE TABLE families (id BIGINT);", false))

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint(fingerprintSteps("CREATE TABLE families (id BIGINT);", false)))
		assert.Len(t, base, 64)
	})

	t.Run("formatting independent", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint(fingerprintSteps("create table families (\n id bigint -- pk\n);", false)))
	})

	t.Run("body change", func(t *testing.T) {
		assert.NotEqual(t, base, Fingerprint(fingerprintSteps("CREATE TABLE families (id INT);", false)))
	})

	t.Run("deferral change", func(t *testing.T) {
		assert.NotEqual(t, base, Fingerprint(fingerprintSteps("CREATE TABLE families (id BIGINT);", true)))
	})

	t.Run("empty plan", func(t *testing.T) {
		assert.Len(t, Fingerprint(nil), 64)
	})
}

func TestShortAndMatches(t *testing.T) {
	fp := Fingerprint(fingerprintSteps("CREATE TABLE families (id BIGINT);", false))

	assert.Len(t, Short(fp), ShortLength)
	assert.Equal(t, "abc", Short("abc"))

	assert.True(t, Matches(fp, fp))
	assert.True(t, Matches(fp, Short(fp)))
	assert.True(t, Matches(fp, "  "+Short(fp)+"\n"))
	assert.False(t, Matches(fp, ""))
	assert.False(t, Matches(fp, "zzzz"))
}
