package query

import "strconv"

// Path accumulates a dot-separated field path one access at a time. The zero
// value is the document root. Every step returns a new Path and leaves the
// receiver untouched, so intermediate accessors can be held, reused, and
// extracted any number of times.
type Path struct {
	p string
}

// Root returns the root accessor (empty path).
func Root() Path { return Path{} }

// Field descends into the named field. Names are inserted verbatim: a name
// containing "." yields a path indistinguishable from two nested steps, so
// callers needing unambiguous paths must avoid dots in field names.
func (p Path) Field(name string) Path {
	if p.p == "" {
		return Path{p: name}
	}
	return Path{p: p.p + "." + name}
}

// Index descends into an array element. The index is stringified like a
// field name.
func (p Path) Index(i int) Path {
	return p.Field(strconv.Itoa(i))
}

// String returns the accumulated path.
func (p Path) String() string { return p.p }

// At extracts the accumulated path into a typed column reference. The
// accessor itself is not a column; extraction is the only conversion and it
// has no side effects on the accessor.
func At[T any](p Path) Column[T] {
	return Column[T]{path: p.p}
}
