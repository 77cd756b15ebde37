// Package memory provides an in-memory checkpoint store.
package memory
