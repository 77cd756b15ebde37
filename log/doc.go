// Package log provides the logging interface used by the agentgraph
// engine, with a stdlib-backed default logger and an adapter for
// kataras/golog. Components log through the package-level functions
// unless a Logger is injected explicitly.
package log
