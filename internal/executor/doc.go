// Package executor runs a deployment plan against a pgplan.Target.
//
// Execution is sequential and fail-fast. The first failing step stops the run;
// every later step is reported as NOT_ATTEMPTED and nothing already applied is
// undone. The report lists the applied steps so an operator can compensate.
//
// The context is checked between steps only. A step that has started runs to
// completion with a context that ignores cancellation.
package executor
