package postgres

const (
	queryRegclassExists = `SELECT to_regclass($1::text) IS NOT NULL`

	queryTypeExists = `SELECT to_regtype($1::text) IS NOT NULL`

	// $1 schema ('' for the search_path), $2 function name
	queryFunctionExists = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_proc p
			JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
			WHERE p.proname = $2
			  AND CASE WHEN $1 = '' THEN n.nspname = ANY (current_schemas(false)) ELSE n.nspname = $1 END
		)`

	querySchemaExists = `SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)`

	queryExtensionExists = `SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_extension WHERE extname = $1)`

	// $1 referencing table, $2 constraint name
	queryConstraintByName = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_constraint
			WHERE conrelid = to_regclass($1::text)
			  AND conname = $2
		)`

	// $1 referencing table, $2 referenced table, $3 referencing columns in order (NULL for any)
	queryForeignKeyExists = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_constraint c
			WHERE c.contype = 'f'
			  AND c.conrelid = to_regclass($1::text)
			  AND c.confrelid = to_regclass($2::text)
			  AND ($3::text[] IS NULL OR ARRAY(
					SELECT a.attname::text
					FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
					JOIN pg_catalog.pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
					ORDER BY k.ord
				) = $3::text[])
		)`
)
