// Package redis provides a Redis-backed checkpoint store.
package redis
