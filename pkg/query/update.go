package query

// UpdateOp is a single field mutation. The implementation set is closed:
// Set and Inc.
type UpdateOp interface {
	updateNode()
}

type setOp struct {
	path string
	val  any
}

type incOp struct {
	path string
	by   any
}

func (setOp) updateNode() {}
func (incOp) updateNode() {}

// Set assigns the field to v, creating it when absent.
func Set[T any](col Column[T], v T) UpdateOp {
	return setOp{path: col.path, val: v}
}

// Inc increments the numeric field by v.
func Inc[T Numeric](col Column[T], v T) UpdateOp {
	return incOp{path: col.path, by: v}
}
