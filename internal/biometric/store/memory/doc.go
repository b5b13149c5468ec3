// Package memory holds in-memory store implementations for tests and
// dev runs without a database.
package memory
