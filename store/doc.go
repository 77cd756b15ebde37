// Package store defines the checkpoint persistence contract used by the
// execution graph, keyed by thread id. Subpackages provide in-memory,
// SQLite, PostgreSQL, and Redis backends.
package store
