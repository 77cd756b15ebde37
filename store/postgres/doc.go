// Package postgres provides a PostgreSQL-backed checkpoint store built
// on pgx.
package postgres
