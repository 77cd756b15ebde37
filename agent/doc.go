// Package agent provides the Supervisor, the top-level façade over the
// execution graph. It owns resume-vs-fresh detection, at-most-one
// active run per thread, interrupt notification, and end-of-run
// checkpoint cleanup. Callers consume only the ChunkOutput stream and
// never inspect graph state directly.
package agent
