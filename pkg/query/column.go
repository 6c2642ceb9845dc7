// Package query implements a typed expression builder for document filters,
// updates, and projections.
//
// Callers build Column references (directly or through the Path accessor),
// combine them into Expr trees and UpdateOp sequences, and compile those into
// the plain documents a document store driver consumes. Construction and
// compilation are pure and allocation-only; values may be shared and compiled
// from any goroutine.
package query

// Ref is the untyped view of a column reference. Column implements it; the
// projection compiler accepts Ref so a shape can mix value types.
type Ref interface {
	Path() string
}

// Column is a typed pointer to a document field identified by its
// dot-separated path. The type parameter exists only for compile-time
// checking of expression and update constructors; no value of T is stored.
type Column[T any] struct {
	path string
}

// Col wraps a path string in a typed column reference. The path is used
// verbatim; no validation is performed.
func Col[T any](path string) Column[T] {
	return Column[T]{path: path}
}

// Path returns the column's dot-separated field path.
func (c Column[T]) Path() string { return c.path }
