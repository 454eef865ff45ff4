// Package loader reads definition sources into pgplan definitions.
//
// The source path selects the format:
//   - a directory: annotated SQL files (see package scanner)
//   - *.yaml, *.yml: a YAML manifest
//   - *.hcl: an HCL manifest
//
// Manifests list objects in authoring order. An object's body is given inline
// or loaded from a file relative to the manifest:
//
//	objects:
//	  - name: goals
//	    file: tables/goals.sql
//	    depends_on:
//	      - object: families
//	        columns: [family_id]
//	        references: [id]
//	        on_delete: cascade
//	      - object: util.money
//	        structural: true
//
// The HCL form uses labeled blocks:
//
//	object "goals" {
//	  file = "tables/goals.sql"
//	  depends_on "families" {
//	    columns    = ["family_id"]
//	    references = ["id"]
//	  }
//	}
package loader
