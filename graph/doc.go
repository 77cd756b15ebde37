// Package graph implements the task-execution state machine: a closed
// set of nodes (planner, executor, tool runner, validator, human
// handler, end) driven by an Engine that checkpoints every transition
// before surfacing it on an ordered ChunkOutput stream.
//
// The engine owns the loop; nodes are pure-ish handlers that take a
// State value and return the next state, the next node, trace events,
// and optionally a pause or an error. Errors are values routed through
// the terminal node rather than panics.
//
// A run pauses by writing a checkpoint whose state carries a pending
// human prompt and closing its stream with an interrupt chunk. A later
// run with Resume set re-enters the node that paused, counters intact.
package graph
