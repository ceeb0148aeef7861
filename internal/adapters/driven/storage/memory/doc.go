// Package memory provides in-memory implementations of the chunk and cursor
// stores. They are used by tests and by the "memory" store driver, which
// keeps nothing across restarts.
package memory
