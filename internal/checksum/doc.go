// Package checksum computes formatting-independent digests of SQL bodies and
// the plan fingerprint derived from them.
//
// # Normalization
//
// Two bodies that differ only in comments, whitespace or letter case outside
// quoted text normalize to the same string:
//  1. Remove SQL comments (-- and nested /* */), keeping string literals and dollar-quoted bodies
//  2. Lowercase everything outside quotes
//  3. Collapse whitespace runs to single spaces and trim
//
// # Plan Fingerprint
//
// Fingerprint hashes the step sequence: kind, subject, inline and deferred
// constraint definitions, and the normalized body of each created object. Equal
// definitions always produce equal fingerprints, so an operator can approve a
// plan with `pgplan plan` and pin it with `pgplan deploy --expect-fingerprint`.
package checksum
