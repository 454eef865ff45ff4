// Package postgres implements pgplan.Target on a pgx connection pool.
//
// Every Apply call runs in its own transaction, so a failing step leaves no
// partial object behind. Object names follow PostgreSQL's folding of unquoted
// identifiers: "App.Goals" is the same object as app.goals.
//
// Existence probes by object type:
//
//	table, view, sequence  to_regclass
//	type                   to_regtype
//	function               pg_proc in the named schema or the search_path
//	schema                 pg_namespace
//	extension              pg_extension
//
// Constraints are found by name when one is declared, otherwise by a foreign
// key from the referencing to the referenced table over the declared columns.
package postgres
