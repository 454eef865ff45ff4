// Package metadata parses the object header embedded in annotated SQL files.
//
// # Header Format
//
// The first block comment of a file may carry one <pgplan-object> element:
//
//	/*
//	<pgplan-object name="billing.transactions" ordinal="4" type="table">
//	  <description>Ledger entries</description>
//	  <dependsOn object="billing.accounts" columns="account_id" references="id" onDelete="cascade"/>
//	  <dependsOn object="billing.goals" columns="goal_id"/>
//	  <dependsOn object="util.money" structural="true"/>
//	</pgplan-object>
//	*/
//	CREATE TABLE billing.transactions (...);
//
// A dependsOn element is referential unless structural="true". Referential
// dependencies describe their foreign key with columns/references, or carry
// a complete statement as element text together with the constraint name:
//
//	<dependsOn object="billing.goals" constraint="tx_goal_fk">
//	  ALTER TABLE billing.transactions ADD CONSTRAINT tx_goal_fk
//	    FOREIGN KEY (goal_id) REFERENCES billing.goals (id) DEFERRABLE
//	</dependsOn>
//
// # Validation Rules
//
//   - name: required, a plain or schema-qualified identifier
//   - ordinal: optional, non-negative; 0 means "position in the directory"
//   - type: optional, one of table, view, sequence, function, type, schema, extension
//   - dependsOn/object: required
//   - onDelete/onUpdate: no action, restrict, cascade, set null, set default
//   - references must list as many columns as columns when both are given
//   - structural dependencies carry no constraint attributes
//
// Headers larger than MaxMetadataSize are rejected.
package metadata
