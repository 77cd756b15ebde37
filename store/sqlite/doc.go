// Package sqlite provides a SQLite-backed checkpoint store.
package sqlite
