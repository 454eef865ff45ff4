package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// ShortLength is the number of hex characters shown when a fingerprint is abbreviated.
const ShortLength = 12

// Body returns the SHA-256 of a normalized SQL body.
func Body(sql string) string {
	sum := sha256.Sum256([]byte(Normalize(sql)))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes a step sequence. The result is a 64-character hex string.
func Fingerprint(steps []pgplan.Step) string {
	h := sha256.New()
	for i, step := range steps {
		writeField(h, fmt.Sprintf("%d", i))
		writeField(h, step.Kind().String())
		switch step.Kind() {
		case pgplan.StepCreateObject:
			obj := step.Object()
			writeField(h, obj.Name)
			writeField(h, string(obj.Type))
			writeField(h, Normalize(obj.Body))
			for _, edge := range step.Inline() {
				writeEdge(h, edge)
			}
		case pgplan.StepApplyDeferredConstraint:
			edge, _ := step.Edge()
			writeEdge(h, edge)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Short abbreviates a fingerprint for display.
func Short(fingerprint string) string {
	if len(fingerprint) <= ShortLength {
		return fingerprint
	}
	return fingerprint[:ShortLength]
}

// Matches compares a full fingerprint with an expected value that may be abbreviated.
func Matches(fingerprint, expected string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	return expected != "" && strings.HasPrefix(fingerprint, expected)
}

func writeEdge(h hash.Hash, e pgplan.DependencyEdge) {
	writeField(h, e.From)
	writeField(h, e.To)
	writeField(h, e.Kind.String())
	writeField(h, e.ConstraintName())
	writeField(h, strings.Join(e.Constraint.Columns, ","))
	writeField(h, strings.Join(e.Constraint.References, ","))
	writeField(h, e.Constraint.OnDelete)
	writeField(h, e.Constraint.OnUpdate)
	writeField(h, Normalize(e.Constraint.SQL))
}

// writeField length-prefixes each field so adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s;", len(s), s)
}
