// Package store defines the run status model and the StatusStore interface the
// status sink and HTTP API share. Implementations live in subpackages; this
// package must not import database drivers or concrete clients.
package store
