// Package task defines the persisted data shapes describing objectives,
// steps, and their execution results. It carries no behavior beyond
// construction and append helpers; all orchestration lives in the graph
// package.
package task
