// Package tool implements the tool runner: it invokes validated tool
// calls from the model, enforces per-call timeouts, dispatches
// independent batches concurrently on a worker pool, and records
// results or errors. The runner never decides control flow.
package tool
